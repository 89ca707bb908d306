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

// Package broker fans notifications out from the service's single
// notification channel to any number of subscribers without letting a slow
// one block the sender. The API server subscribes and broadcasts every
// notification to its WebSocket clients.
package broker

import (
	"context"
	"sync/atomic"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

type subscriber struct {
	ch      chan models.Notification
	methods map[string]struct{}
}

func (s *subscriber) wants(method string) bool {
	if len(s.methods) == 0 {
		return true
	}
	_, ok := s.methods[method]
	return ok
}

// Broker reads a source channel and delivers each notification to every
// interested subscriber with a non-blocking send.
type Broker struct {
	source      <-chan models.Notification
	subscribers map[int]*subscriber
	dropped     atomic.Uint64
	mu          syncutil.RWMutex
	nextID      int
	closed      bool
}

func New(source <-chan models.Notification) *Broker {
	return &Broker{
		source:      source,
		subscribers: make(map[int]*subscriber),
	}
}

// Run delivers notifications until the source channel closes or ctx is
// cancelled, then closes every subscriber channel. It always returns nil so
// it can be run in an errgroup.
func (b *Broker) Run(ctx context.Context) error {
	defer b.closeAll()
	for {
		select {
		case n, ok := <-b.source:
			if !ok {
				log.Debug().Msg("broker: source channel closed")
				return nil
			}
			b.broadcast(n)
		case <-ctx.Done():
			log.Debug().Msg("broker: context cancelled, shutting down")
			return nil
		}
	}
}

func (b *Broker) broadcast(n models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if !sub.wants(n.Method) {
			continue
		}
		select {
		case sub.ch <- n:
		default:
			b.dropped.Add(1)
			log.Warn().
				Int("subscriber_id", id).
				Str("method", n.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe registers a consumer. With no methods given every notification
// is delivered, otherwise only the listed ones. Subscribing after the broker
// stopped returns an already closed channel.
func (b *Broker) Subscribe(bufferSize int, methods ...string) (notifications <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan models.Notification, bufferSize)
	id = b.nextID
	b.nextID++

	if b.closed {
		close(ch)
		return ch, id
	}

	sub := &subscriber{ch: ch}
	if len(methods) > 0 {
		sub.methods = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			sub.methods[m] = struct{}{}
		}
	}
	b.subscribers[id] = sub

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Strs("methods", methods).
		Msg("new subscriber registered")

	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped returns how many deliveries were skipped because a subscriber was
// full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		close(sub.ch)
		log.Debug().Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]*subscriber)
	b.closed = true
}
