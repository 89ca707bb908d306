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

package catalogdb

import (
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Name      string  `csv:"name"`
	Path      string  `csv:"path"`
	Cover     string  `csv:"cover"`
	Played    string  `csv:"played"`
	AddedDate string  `csv:"added_date"`
	Playtime  float64 `csv:"playtime_seconds"`
}

// ExportCSV writes entries as CSV with a header row, in catalog order.
func ExportCSV(w io.Writer, entries []catalog.GameEntry) error {
	rows := make([]*csvRow, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		rows = append(rows, &csvRow{
			Name:      e.Name,
			Path:      e.Path,
			Cover:     e.Cover,
			Playtime:  e.Playtime,
			Played:    e.PlaytimeDuration().Truncate(time.Second).String(),
			AddedDate: e.AddedDate.In(time.Local).Format(TimeFormat),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write catalog csv: %w", err)
	}
	return nil
}
