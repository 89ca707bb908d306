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

package cli

import (
	"errors"
	"fmt"
	"io"
)

var ErrUnknownServiceCommand = errors.New("unknown service command")

// ServiceController manages a background service. Implemented by
// daemon.Service.
type ServiceController interface {
	Start() error
	Stop() error
	Running() bool
	Pid() (int, error)
}

// HandleService runs a -service subcommand.
func HandleService(svc ServiceController, cmd string, out io.Writer) error {
	switch cmd {
	case "start":
		if err := svc.Start(); err != nil {
			return fmt.Errorf("error starting service: %w", err)
		}
		_, _ = fmt.Fprintln(out, "Service started.")
	case "stop":
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("error stopping service: %w", err)
		}
		_, _ = fmt.Fprintln(out, "Service stopped.")
	case "restart":
		if svc.Running() {
			if err := svc.Stop(); err != nil {
				return fmt.Errorf("error stopping service: %w", err)
			}
		}
		if err := svc.Start(); err != nil {
			return fmt.Errorf("error starting service: %w", err)
		}
		_, _ = fmt.Fprintln(out, "Service restarted.")
	case "status":
		if !svc.Running() {
			_, _ = fmt.Fprintln(out, "Service is not running.")
			return nil
		}
		pid, err := svc.Pid()
		if err != nil {
			return fmt.Errorf("error reading service pid: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Service is running (pid %d).\n", pid)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownServiceCommand, cmd)
	}
	return nil
}
