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

package helpers

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessStats is a point-in-time resource snapshot of a running process.
type ProcessStats struct {
	RSSBytes uint64
	Running  bool
}

// GetProcessStats reads the resident memory of pid. A process that has
// already exited is reported as not running without an error.
func GetProcessStats(ctx context.Context, pid int) (ProcessStats, error) {
	if pid <= 0 {
		return ProcessStats{}, fmt.Errorf("invalid pid: %d", pid)
	}

	//nolint:gosec // G115: pids fit in int32 on every supported platform
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ProcessStats{Running: false}, nil //nolint:nilerr // gone is a valid state
	}

	running, err := proc.IsRunningWithContext(ctx)
	if err != nil || !running {
		return ProcessStats{Running: false}, nil //nolint:nilerr // gone is a valid state
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessStats{Running: true}, fmt.Errorf("failed to read memory info: %w", err)
	}

	return ProcessStats{RSSBytes: mem.RSS, Running: true}, nil
}
