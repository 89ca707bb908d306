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
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/adrg/xdg"
)

// Dirs is the on-disk layout of the service.
type Dirs struct {
	Config string
	Data   string
	Log    string
}

// DefaultDirs returns the per-user XDG directories for the app. On Windows
// and macOS xdg maps these to the platform's conventional locations.
func DefaultDirs() Dirs {
	return Dirs{
		Config: filepath.Join(xdg.ConfigHome, config.AppName),
		Data:   filepath.Join(xdg.DataHome, config.AppName),
		Log:    filepath.Join(xdg.StateHome, config.AppName),
	}
}

// EnsureDirectories creates every directory in d.
func EnsureDirectories(d Dirs) error {
	for _, dir := range []string{d.Config, d.Data, d.Log} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists returns true if path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
