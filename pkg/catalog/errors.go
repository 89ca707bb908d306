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

import "errors"

// Catalog errors. They are always returned wrapped with the offending path,
// match them with errors.Is.
var (
	ErrDuplicate          = errors.New("game already in catalog")
	ErrNotFound           = errors.New("game not in catalog")
	ErrExecutableNotFound = errors.New("game executable not found")
	ErrInvalidPlaytime    = errors.New("invalid playtime delta")
	ErrInvalidPath        = errors.New("invalid game path")
)
