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
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.Local)

func absPath(parts ...string) string {
	return filepath.Join(append([]string{string(filepath.Separator)}, parts...)...)
}

func TestNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "strips extension", path: absPath("games", "foo.exe"), expected: "foo"},
		{name: "keeps inner dots", path: absPath("games", "Half-Life 2.v1.0.exe"), expected: "Half-Life 2.v1.0"},
		{name: "no extension", path: absPath("games", "doom"), expected: "doom"},
		{name: "dotfile", path: absPath("games", ".hidden"), expected: ".hidden"},
		{name: "unicode", path: absPath("игры", "Ведьмак.exe"), expected: "Ведьмак"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NameFromPath(tt.path))
		})
	}
}

func TestCatalogAdd(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("games", "foo.exe")

	entry, err := c.Add(path, "", testNow)
	require.NoError(t, err)

	assert.Equal(t, "foo", entry.Name)
	assert.Equal(t, path, entry.Path)
	assert.Empty(t, entry.Cover)
	assert.Zero(t, entry.Playtime)
	assert.True(t, entry.AddedDate.Equal(testNow.Truncate(time.Second)))
	assert.True(t, c.Dirty())

	found, err := c.Find(path)
	require.NoError(t, err)
	assert.Equal(t, entry, found)
}

func TestCatalogAdd_NameHint(t *testing.T) {
	t.Parallel()

	c := New()
	entry, err := c.Add(absPath("games", "hl2.exe"), "Half-Life 2", testNow)
	require.NoError(t, err)
	assert.Equal(t, "Half-Life 2", entry.Name)
}

func TestCatalogAdd_Duplicate(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("games", "foo.exe")
	_, err := c.Add(path, "", testNow)
	require.NoError(t, err)

	before := c.Entries()
	_, err = c.Add(path, "other", testNow.Add(time.Hour))

	require.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), path)
	assert.Equal(t, before, c.Entries())
	assert.Equal(t, 1, c.Len())
}

func TestCatalogAdd_RelativePath(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(filepath.Join("games", "foo.exe"), "", testNow)
	require.ErrorIs(t, err, ErrInvalidPath)
	assert.Zero(t, c.Len())
	assert.False(t, c.Dirty())
}

func TestCatalogRemove(t *testing.T) {
	t.Parallel()

	c := New()
	a, b, d := absPath("a.exe"), absPath("b.exe"), absPath("d.exe")
	for _, p := range []string{a, b, d} {
		_, err := c.Add(p, "", testNow)
		require.NoError(t, err)
	}
	c.MarkClean()

	assert.True(t, c.Remove(b))
	assert.True(t, c.Dirty())

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, a, entries[0].Path)
	assert.Equal(t, d, entries[1].Path)

	// index must follow the shifted entries
	found, err := c.Find(d)
	require.NoError(t, err)
	assert.Equal(t, d, found.Path)
	_, err = c.AccruePlaytime(d, 5)
	require.NoError(t, err)
	found, err = c.Find(d)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, found.Playtime, 1e-9)
}

func TestCatalogRemove_Absent(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Add(absPath("a.exe"), "", testNow)
	require.NoError(t, err)
	c.MarkClean()
	before := c.Entries()

	assert.False(t, c.Remove(absPath("missing.exe")))
	assert.False(t, c.Dirty())
	assert.Equal(t, before, c.Entries())
}

func TestCatalogFind_NotFound(t *testing.T) {
	t.Parallel()

	path := absPath("missing.exe")
	_, err := New().Find(path)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), path)
}

func TestCatalogUpdateCover(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("games", "foo.exe")
	_, err := c.Add(path, "", testNow)
	require.NoError(t, err)
	c.MarkClean()

	require.NoError(t, c.UpdateCover(path, absPath("covers", "foo.png")))
	assert.True(t, c.Dirty())

	found, err := c.Find(path)
	require.NoError(t, err)
	assert.Equal(t, absPath("covers", "foo.png"), found.Cover)

	c.MarkClean()
	require.NoError(t, c.UpdateCover(path, absPath("covers", "foo.png")))
	assert.False(t, c.Dirty(), "same cover should not dirty the catalog")

	err = c.UpdateCover(absPath("missing.exe"), "x.png")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogAccruePlaytime(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("games", "foo.exe")
	_, err := c.Add(path, "", testNow)
	require.NoError(t, err)

	total, err := c.AccruePlaytime(path, 1.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, total, 1e-9)

	total, err = c.AccruePlaytime(path, 1.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, total, 1e-9)

	found, err := c.Find(path)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, found.PlaytimeDuration())
}

func TestCatalogAccruePlaytime_Invalid(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("games", "foo.exe")
	_, err := c.Add(path, "", testNow)
	require.NoError(t, err)

	for _, delta := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := c.AccruePlaytime(path, delta)
		require.ErrorIs(t, err, ErrInvalidPlaytime)
	}

	_, err = c.AccruePlaytime(absPath("missing.exe"), 1)
	require.ErrorIs(t, err, ErrNotFound)

	found, err := c.Find(path)
	require.NoError(t, err)
	assert.Zero(t, found.Playtime)
}

func TestCatalogEntryID(t *testing.T) {
	t.Parallel()

	c := New()
	a, b := absPath("a.exe"), absPath("b.exe")
	_, err := c.Add(a, "", testNow)
	require.NoError(t, err)
	_, err = c.Add(b, "", testNow)
	require.NoError(t, err)

	idA, ok := c.EntryID(a)
	require.True(t, ok)
	idB, ok := c.EntryID(b)
	require.True(t, ok)
	assert.NotEqual(t, idA, idB)

	// removing b shifts nothing for a
	require.True(t, c.Remove(b))
	_, ok = c.EntryID(b)
	assert.False(t, ok)
	again, ok := c.EntryID(a)
	require.True(t, ok)
	assert.Equal(t, idA, again)

	// re-adding a path is a new entry
	require.True(t, c.Remove(a))
	_, err = c.Add(a, "", testNow)
	require.NoError(t, err)
	readded, ok := c.EntryID(a)
	require.True(t, ok)
	assert.NotEqual(t, idA, readded)
	assert.NotEqual(t, idB, readded)
}

func TestFromEntries(t *testing.T) {
	t.Parallel()

	entries := []GameEntry{
		{Name: "b", Path: absPath("b.exe"), AddedDate: testNow},
		{Name: "a", Path: absPath("a.exe"), AddedDate: testNow, Playtime: 10},
	}

	c, err := FromEntries(entries)
	require.NoError(t, err)
	assert.Equal(t, entries, c.Entries())
	assert.False(t, c.Dirty())

	_, err = FromEntries(append(entries, GameEntry{Name: "dup", Path: absPath("a.exe")}))
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestCatalogEntries_IsCopy(t *testing.T) {
	t.Parallel()

	c := New()
	path := absPath("a.exe")
	_, err := c.Add(path, "", testNow)
	require.NoError(t, err)

	entries := c.Entries()
	entries[0].Playtime = 1000

	found, err := c.Find(path)
	require.NoError(t, err)
	assert.Zero(t, found.Playtime)
}

func TestCatalogSearch(t *testing.T) {
	t.Parallel()

	c := New()
	names := []string{"Doom Eternal", "Half-Life", "doom", "Ведьмак 3", "Quake"}
	for _, n := range names {
		_, err := c.Add(absPath("games", n+".exe"), "", testNow)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "empty returns all in order", query: "", expected: names},
		{name: "case insensitive", query: "DOOM", expected: []string{"Doom Eternal", "doom"}},
		{name: "substring", query: "life", expected: []string{"Half-Life"}},
		{name: "cyrillic case insensitive", query: "ВЕДЬМ", expected: []string{"Ведьмак 3"}},
		{name: "no match", query: "zelda", expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			results := c.Search(tt.query)
			got := make([]string, 0, len(results))
			for _, r := range results {
				got = append(got, r.Name)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
