// Zaparoo Shelf
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Shelf.
//
// Zaparoo Shelf is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Shelf is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Shelf.  If not, see <http://www.gnu.org/licenses/>.

package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startBroker runs b until the test ends and waits for it to stop.
func startBroker(t *testing.T, b *Broker) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "channel closed")
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestBroker_SubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	b := New(make(chan models.Notification))

	ch, id := b.Subscribe(10)
	_, id2 := b.Subscribe(10)
	assert.Equal(t, 0, id)
	assert.Equal(t, 1, id2)
	assert.Equal(t, 2, b.Subscribers())

	b.Unsubscribe(id)
	assert.Equal(t, 1, b.Subscribers())
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// second unsubscribe is a no-op
	b.Unsubscribe(id)
	assert.Equal(t, 1, b.Subscribers())
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 1)
	b := New(source)
	ch1, _ := b.Subscribe(10)
	ch2, _ := b.Subscribe(10)
	startBroker(t, b)

	source <- models.Notification{Method: models.NotificationGamesAdded}

	assert.Equal(t, models.NotificationGamesAdded, receive(t, ch1).Method)
	assert.Equal(t, models.NotificationGamesAdded, receive(t, ch2).Method)
}

func TestBroker_MethodFilter(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 3)
	b := New(source)
	all, _ := b.Subscribe(10)
	playtime, _ := b.Subscribe(10, models.NotificationPlaytimeUpdated)
	startBroker(t, b)

	source <- models.Notification{Method: models.NotificationLaunchStarted}
	source <- models.Notification{Method: models.NotificationPlaytimeUpdated}

	assert.Equal(t, models.NotificationLaunchStarted, receive(t, all).Method)
	assert.Equal(t, models.NotificationPlaytimeUpdated, receive(t, all).Method)
	assert.Equal(t, models.NotificationPlaytimeUpdated, receive(t, playtime).Method)
	assert.Empty(t, playtime)
}

func TestBroker_SlowConsumerDoesNotBlockFastConsumer(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := New(source)
	slow, _ := b.Subscribe(1)
	fast, _ := b.Subscribe(100)
	startBroker(t, b)

	for range 10 {
		source <- models.Notification{Method: models.NotificationGamesCover}
	}

	for range 10 {
		receive(t, fast)
	}
	assert.Len(t, slow, 1)
	assert.Eventually(t, func() bool { return b.Dropped() == 9 }, time.Second, 5*time.Millisecond)
}

func TestBroker_SubscriberReceivesInOrder(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := New(source)
	ch, _ := b.Subscribe(10)
	startBroker(t, b)

	methods := []string{
		models.NotificationLaunchStarted,
		models.NotificationPlaytimeUpdated,
		models.NotificationGamesRemoved,
	}
	for _, m := range methods {
		source <- models.Notification{Method: m}
	}
	for _, m := range methods {
		assert.Equal(t, m, receive(t, ch).Method)
	}
}

func TestBroker_ContextCancellationClosesSubscribers(t *testing.T) {
	t.Parallel()

	b := New(make(chan models.Notification))
	ch, _ := b.Subscribe(1)
	cancel := startBroker(t, b)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}

	late, _ := b.Subscribe(1)
	_, ok := <-late
	assert.False(t, ok, "subscribing after stop returns a closed channel")
}

func TestBroker_SourceClosureStopsBroker(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := New(source)
	ch, _ := b.Subscribe(1)

	done := make(chan error, 1)
	go func() { done <- b.Run(context.Background()) }()
	close(source)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("broker did not stop")
	}
	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroker_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification, 100)
	b := New(source)
	startBroker(t, b)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			ch, id := b.Subscribe(5)
			source <- models.Notification{Method: models.NotificationGamesAdded}
			b.Unsubscribe(id)
			for range ch {
			}
		})
	}
	wg.Wait()
	assert.Zero(t, b.Subscribers())
}
