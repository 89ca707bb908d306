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

// Package command starts game executables as child processes. The Spawner
// interface lets the supervisor be tested without running real programs.
package command

import (
	"errors"
	"os/exec"
)

// StartOptions configures how a game process is started.
type StartOptions struct {
	// Dir is the working directory of the child. Empty inherits the
	// service's working directory.
	Dir string
	// HideWindow prevents a console window from appearing (Windows-only).
	HideWindow bool
	// Detach starts the child in its own process group so signals sent to
	// the service, like Ctrl-C in a terminal, do not reach the game.
	Detach bool
}

// Process is a started child process.
type Process interface {
	Pid() int
	// Wait blocks until the process exits. A non-zero exit status is not an
	// error: it is returned as the exit code. The error is only set when the
	// exit could not be observed, the exit code is then -1.
	Wait() (int, error)
}

// Spawner starts processes.
type Spawner interface {
	// Start launches name with args and returns once the process exists.
	// It does not wait for the process to exit.
	Start(opts StartOptions, name string, args ...string) (Process, error)
}

// RealSpawner starts real OS processes. Children are never tied to a
// context: a running game outlives any request that launched it.
type RealSpawner struct{}

//nolint:wrapcheck // callers wrap with the game path
func (*RealSpawner) Start(opts StartOptions, name string, args ...string) (Process, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // launching user cataloged games is the point
	cmd.Dir = opts.Dir
	cmd.SysProcAttr = sysProcAttr(opts)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err //nolint:wrapcheck // callers log it with the game path
}
