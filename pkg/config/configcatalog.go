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

import "path/filepath"

type Catalog struct {
	File string `toml:"file,omitempty"`
}

// CatalogFile returns the catalog document path, defaulting to games.json
// in dataDir. A relative configured path is resolved against dataDir.
func (c *Instance) CatalogFile(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	file := c.vals.Catalog.File
	if file == "" {
		return filepath.Join(dataDir, CatalogFile)
	}
	if !filepath.IsAbs(file) {
		return filepath.Join(dataDir, file)
	}
	return filepath.Clean(file)
}

func (c *Instance) SetCatalogFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Catalog.File = path
}
