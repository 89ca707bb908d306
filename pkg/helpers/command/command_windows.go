//go:build windows

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

package command

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func sysProcAttr(opts StartOptions) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{HideWindow: opts.HideWindow}
	if opts.Detach {
		attr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP
	}
	return attr
}
