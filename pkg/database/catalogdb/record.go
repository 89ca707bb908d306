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
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/go-playground/validator/v10"
)

// TimeFormat is the layout of added_date in the catalog document, always in
// local time.
const TimeFormat = "2006-01-02 15:04:05"

// record is the persisted shape of a single game entry.
type record struct {
	Name      string  `json:"name" validate:"required"`
	Path      string  `json:"path" validate:"required,abspath"`
	Cover     string  `json:"cover"`
	Playtime  float64 `json:"playtime" validate:"gte=0"`
	AddedDate string  `json:"added_date" validate:"required,addeddate"`
}

func newRecordValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("abspath", validateAbsPath)
	_ = v.RegisterValidation("addeddate", validateAddedDate)
	return v
}

func validateAbsPath(fl validator.FieldLevel) bool {
	return filepath.IsAbs(fl.Field().String())
}

func validateAddedDate(fl validator.FieldLevel) bool {
	_, err := time.ParseInLocation(TimeFormat, fl.Field().String(), time.Local)
	return err == nil
}

func fromEntry(e *catalog.GameEntry) record {
	return record{
		Name:      e.Name,
		Path:      e.Path,
		Cover:     e.Cover,
		Playtime:  e.Playtime,
		AddedDate: e.AddedDate.In(time.Local).Format(TimeFormat),
	}
}

func (r *record) toEntry() (catalog.GameEntry, error) {
	added, err := time.ParseInLocation(TimeFormat, r.AddedDate, time.Local)
	if err != nil {
		return catalog.GameEntry{}, fmt.Errorf("failed to parse added_date: %w", err)
	}
	return catalog.GameEntry{
		Name:      r.Name,
		Path:      r.Path,
		Cover:     r.Cover,
		Playtime:  r.Playtime,
		AddedDate: added,
	}, nil
}
