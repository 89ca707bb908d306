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

package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, entry ServiceEntry, spawner command.Spawner) *Service {
	t.Helper()
	dir := t.TempDir()
	s, err := NewService(ServiceArgs{
		Entry:   entry,
		Spawner: spawner,
		Dirs: helpers.Dirs{
			Config: dir,
			Data:   filepath.Join(dir, "data"),
			Log:    dir,
		},
	})
	require.NoError(t, err)
	return s
}

func writePid(t *testing.T, s *Service, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.pidPath, []byte(content), 0o600))
}

func fakeEntry(stopped *atomic.Bool, done chan struct{}) ServiceEntry {
	return func() (func() error, <-chan struct{}, error) {
		stop := func() error {
			stopped.Store(true)
			return nil
		}
		return stop, done, nil
	}
}

func TestNewService_PidPath(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil, nil)
	assert.Equal(t, config.PidFile, filepath.Base(s.pidPath))
	assert.DirExists(t, filepath.Dir(s.pidPath))
}

func TestPid(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil, nil)

	pid, err := s.Pid()
	require.NoError(t, err)
	assert.Zero(t, pid)
	assert.False(t, s.Running())

	writePid(t, s, "1234\n")
	pid, err = s.Pid()
	require.NoError(t, err)
	assert.Equal(t, 1234, pid)

	writePid(t, s, "garbage")
	_, err = s.Pid()
	require.Error(t, err)
	assert.False(t, s.Running())
}

func TestRunning(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil, nil)

	writePid(t, s, strconv.Itoa(os.Getpid()))
	assert.True(t, s.Running())

	// well above any pid_max
	writePid(t, s, "2147483600")
	assert.False(t, s.Running())
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	var stopped atomic.Bool
	s := newTestService(t, fakeEntry(&stopped, make(chan struct{})), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		pid, err := s.Pid()
		return err == nil && pid == os.Getpid()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, stopped.Load())
	assert.NoFileExists(t, s.pidPath)
}

func TestRun_InternalShutdown(t *testing.T) {
	t.Parallel()

	var stopped atomic.Bool
	done := make(chan struct{})
	close(done)
	s := newTestService(t, fakeEntry(&stopped, done), nil)

	require.NoError(t, s.Run(context.Background()))
	assert.True(t, stopped.Load())
	assert.NoFileExists(t, s.pidPath)
}

func TestRun_StartError(t *testing.T) {
	t.Parallel()

	startErr := errors.New("port in use")
	s := newTestService(t, func() (func() error, <-chan struct{}, error) {
		return nil, nil, startErr
	}, nil)

	err := s.Run(context.Background())
	require.ErrorIs(t, err, startErr)
	assert.NoFileExists(t, s.pidPath)
}

func TestRun_AlreadyRunning(t *testing.T) {
	t.Parallel()

	s := newTestService(t, func() (func() error, <-chan struct{}, error) {
		t.Error("service should not be started")
		return nil, nil, errors.New("unreachable")
	}, nil)
	writePid(t, s, strconv.Itoa(os.Getpid()))

	require.ErrorIs(t, s.Run(context.Background()), ErrAlreadyRunning)
	assert.FileExists(t, s.pidPath)
}

func TestStart_SpawnError(t *testing.T) {
	t.Parallel()

	spawner := &mocks.MockSpawner{}
	spawner.On("Start", mock.MatchedBy(func(opts command.StartOptions) bool { return opts.Detach }), mock.Anything, []string{DaemonFlag}).
		Return(nil, os.ErrPermission)
	s := newTestService(t, nil, spawner)

	err := s.Start()
	require.ErrorIs(t, err, os.ErrPermission)
	spawner.AssertExpectations(t)
}

func TestStart_AlreadyRunning(t *testing.T) {
	t.Parallel()

	spawner := &mocks.MockSpawner{}
	s := newTestService(t, nil, spawner)
	writePid(t, s, strconv.Itoa(os.Getpid()))

	require.ErrorIs(t, s.Start(), ErrAlreadyRunning)
	spawner.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestStop_NotRunning(t *testing.T) {
	t.Parallel()

	s := newTestService(t, nil, nil)
	require.ErrorIs(t, s.Stop(), ErrNotRunning)

	writePid(t, s, "2147483600")
	require.ErrorIs(t, s.Stop(), ErrNotRunning)
	assert.NoFileExists(t, s.pidPath, "stale pid file should be cleared")
}
