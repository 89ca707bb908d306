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

// Package catalog holds the in-memory game catalog: an insertion-ordered set
// of game entries keyed by executable path.
//
// A Catalog is not safe for concurrent use. The service serializes every
// read and mutation through a single lock, see the state package.
package catalog

import (
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// Catalog is the authoritative, order-preserving collection of game entries.
type Catalog struct {
	index   map[string]int
	ids     map[string]uint64
	entries []GameEntry
	nextID  uint64
	dirty   bool
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		index: make(map[string]int),
		ids:   make(map[string]uint64),
	}
}

// FromEntries builds a catalog from previously persisted entries, keeping
// their order. Returns ErrDuplicate if two entries share a path.
func FromEntries(entries []GameEntry) (*Catalog, error) {
	c := &Catalog{
		index:   make(map[string]int, len(entries)),
		ids:     make(map[string]uint64, len(entries)),
		entries: make([]GameEntry, 0, len(entries)),
	}
	for _, e := range entries {
		if _, ok := c.index[e.Path]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.Path)
		}
		c.insert(e)
	}
	return c, nil
}

// Add appends a new entry for path. The display name is nameHint, or derived
// from the file name when the hint is empty. Returns a copy of the new entry.
func (c *Catalog) Add(path, nameHint string, now time.Time) (GameEntry, error) {
	if path == "" || !filepath.IsAbs(path) {
		return GameEntry{}, fmt.Errorf("%w: path must be absolute: %q", ErrInvalidPath, path)
	}
	if _, ok := c.index[path]; ok {
		return GameEntry{}, fmt.Errorf("%w: %s", ErrDuplicate, path)
	}

	name := nameHint
	if name == "" {
		name = NameFromPath(path)
	}

	entry := GameEntry{
		Name:      name,
		Path:      path,
		Cover:     "",
		Playtime:  0,
		AddedDate: now.Round(0).Truncate(time.Second),
	}
	c.insert(entry)
	c.dirty = true

	return entry, nil
}

func (c *Catalog) insert(e GameEntry) {
	c.nextID++
	c.ids[e.Path] = c.nextID
	c.index[e.Path] = len(c.entries)
	c.entries = append(c.entries, e)
}

// Remove deletes the entry for path, keeping the order of the remaining
// entries. Returns false if no entry had that path.
func (c *Catalog) Remove(path string) bool {
	i, ok := c.index[path]
	if !ok {
		return false
	}

	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	delete(c.index, path)
	delete(c.ids, path)
	for j := i; j < len(c.entries); j++ {
		c.index[c.entries[j].Path] = j
	}
	c.dirty = true

	return true
}

// Find returns a copy of the entry for path.
func (c *Catalog) Find(path string) (GameEntry, error) {
	i, ok := c.index[path]
	if !ok {
		return GameEntry{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return c.entries[i], nil
}

// EntryID returns the identity of the entry for path, and false if there is
// none. IDs are never reused, so removing a path and adding it again yields
// a different ID. They are not persisted.
func (c *Catalog) EntryID(path string) (uint64, bool) {
	id, ok := c.ids[path]
	return id, ok
}

// UpdateCover sets the cover image of the entry for path. An empty cover
// clears it.
func (c *Catalog) UpdateCover(path, cover string) error {
	i, ok := c.index[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if c.entries[i].Cover == cover {
		return nil
	}
	c.entries[i].Cover = cover
	c.dirty = true
	return nil
}

// AccruePlaytime adds deltaSeconds to the playtime of the entry for path and
// returns the new total. Negative, NaN and infinite deltas are rejected so
// playtime can never decrease.
func (c *Catalog) AccruePlaytime(path string, deltaSeconds float64) (float64, error) {
	if deltaSeconds < 0 || math.IsNaN(deltaSeconds) || math.IsInf(deltaSeconds, 0) {
		return 0, fmt.Errorf("%w: %v for %s", ErrInvalidPlaytime, deltaSeconds, path)
	}
	i, ok := c.index[path]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	c.entries[i].Playtime += deltaSeconds
	c.dirty = true
	return c.entries[i].Playtime, nil
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []GameEntry {
	out := make([]GameEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Dirty reports whether the catalog changed since the last MarkClean.
func (c *Catalog) Dirty() bool {
	return c.dirty
}

// MarkClean clears the dirty flag after a successful save.
func (c *Catalog) MarkClean() {
	c.dirty = false
}
