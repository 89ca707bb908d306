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

package config

// DefaultPlaytimeRetention is the number of days of session history kept.
const DefaultPlaytimeRetention = 365

// Playtime configures the session history log. Accumulated playtime in the
// catalog is always tracked.
type Playtime struct {
	History   *bool `toml:"history,omitempty"`
	Retention *int  `toml:"retention,omitempty"`
}

// PlaytimeHistory returns true if finished sessions are recorded in the
// history database. Enabled by default.
func (c *Instance) PlaytimeHistory() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Playtime.History == nil {
		return true
	}
	return *c.vals.Playtime.History
}

func (c *Instance) SetPlaytimeHistory(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Playtime.History = &enabled
}

// PlaytimeRetention returns the number of days to retain session history.
// Returns 0 if cleanup is disabled.
func (c *Instance) PlaytimeRetention() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Playtime.Retention == nil {
		return DefaultPlaytimeRetention
	}
	if *c.vals.Playtime.Retention < 0 {
		return 0
	}
	return *c.vals.Playtime.Retention
}
