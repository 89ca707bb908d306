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

package models

type PathParams struct {
	Path string `json:"path" validate:"required,abspath"`
}

type AddGameParams struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
	Path string  `json:"path" validate:"required,abspath"`
}

type SearchParams struct {
	Query string `json:"query"`
}

type CoverParams struct {
	Path  string `json:"path" validate:"required,abspath"`
	Cover string `json:"cover" validate:"omitempty,abspath,image"`
}

type ScanParams struct {
	Dir string `json:"dir" validate:"required,abspath"`
}

type HistoryParams struct {
	Path   *string `json:"path" validate:"omitempty,min=1"`
	LastID *int64  `json:"lastId" validate:"omitempty,gte=0"`
	Limit  *int    `json:"limit" validate:"omitempty,gte=1,lte=100"`
}
