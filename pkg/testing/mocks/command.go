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

package mocks

import (
	"sync"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/command"
	"github.com/stretchr/testify/mock"
)

// MockSpawner is a testify mock for command.Spawner.
//
// Example:
//
//	proc := mocks.NewFakeProcess(1234)
//	spawner := &mocks.MockSpawner{}
//	spawner.On("Start", mock.Anything, "/games/foo.exe", mock.Anything).Return(proc, nil)
type MockSpawner struct {
	mock.Mock
}

func (m *MockSpawner) Start(opts command.StartOptions, name string, args ...string) (command.Process, error) {
	called := m.Called(opts, name, args)
	proc, _ := called.Get(0).(command.Process)
	//nolint:wrapcheck // mock returns are passed through
	return proc, called.Error(1)
}

// FakeProcess is a command.Process whose Wait blocks until Exit is called.
type FakeProcess struct {
	exited   chan struct{}
	pid      int
	exitCode int
	waitErr  error
	once     sync.Once
}

func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{
		pid:    pid,
		exited: make(chan struct{}),
	}
}

func (p *FakeProcess) Pid() int {
	return p.pid
}

func (p *FakeProcess) Wait() (int, error) {
	<-p.exited
	return p.exitCode, p.waitErr
}

// Exit releases Wait with the given exit code. Only the first call counts.
func (p *FakeProcess) Exit(code int) {
	p.once.Do(func() {
		p.exitCode = code
		close(p.exited)
	})
}

// Fail releases Wait with an error, as if the process could not be waited on.
func (p *FakeProcess) Fail(err error) {
	p.once.Do(func() {
		p.exitCode = -1
		p.waitErr = err
		close(p.exited)
	})
}
