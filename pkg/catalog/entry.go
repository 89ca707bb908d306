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

package catalog

import (
	"path/filepath"
	"strings"
	"time"
)

// GameEntry is a single cataloged game. Path is the unique key.
type GameEntry struct {
	AddedDate time.Time
	Name      string
	Path      string
	Cover     string
	// Playtime is the accumulated play time in seconds.
	Playtime float64
}

// PlaytimeDuration returns the accumulated play time as a duration.
func (e *GameEntry) PlaytimeDuration() time.Duration {
	return time.Duration(e.Playtime * float64(time.Second))
}

// NameFromPath derives a display name from an executable path: the file name
// without its extension. Dotfiles keep their full name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
