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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FoldName normalizes a string for case-insensitive comparison. Names are
// brought to NFC first so precomposed and decomposed forms of the same
// letter compare equal, then Unicode case folded.
func FoldName(s string) string {
	// a Caser is stateful, never share one between goroutines
	return cases.Fold().String(norm.NFC.String(s))
}

// Search returns the entries whose name contains text, ignoring case, in
// catalog order. An empty text returns every entry.
func (c *Catalog) Search(text string) []GameEntry {
	if text == "" {
		return c.Entries()
	}

	needle := FoldName(text)
	results := make([]GameEntry, 0)
	for i := range c.entries {
		if strings.Contains(FoldName(c.entries[i].Name), needle) {
			results = append(results, c.entries[i])
		}
	}
	return results
}
