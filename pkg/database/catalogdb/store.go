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

// Package catalogdb persists the game catalog as a single JSON document.
//
// The document is a JSON array of records, indented with four spaces:
//
//	[
//	    {
//	        "name": "Doom",
//	        "path": "/games/doom/doom.exe",
//	        "cover": "",
//	        "playtime": 120.5,
//	        "added_date": "2026-01-02 15:04:05"
//	    }
//	]
//
// Every save rewrites the whole document through a temporary file that is
// renamed over the original, so a crash mid-write never leaves a truncated
// catalog behind.
package catalogdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Store reads and writes the catalog document at a fixed path.
type Store struct {
	fs       afero.Fs
	validate *validator.Validate
	path     string
}

// NewStore returns a Store for the document at path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{
		fs:       fs,
		path:     path,
		validate: newRecordValidator(),
	}
}

// Path returns the location of the catalog document.
func (s *Store) Path() string {
	return s.path
}

// Load reads every entry from the document in stored order. A missing or
// empty document is an empty catalog. A document that does not decode, holds
// unknown fields, fails record validation or repeats a path returns
// ErrCorruptStore.
func (s *Store) Load() ([]catalog.GameEntry, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", s.path).Msg("catalog file not found, starting empty")
		return []catalog.GameEntry{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrIO, s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []catalog.GameEntry{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, s.path, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after catalog", ErrCorruptStore, s.path)
	}

	entries := make([]catalog.GameEntry, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := s.validate.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %w", ErrCorruptStore, s.path, i, err)
		}
		if _, ok := seen[records[i].Path]; ok {
			return nil, fmt.Errorf(
				"%w: %s: record %d: duplicate path %s",
				ErrCorruptStore, s.path, i, records[i].Path,
			)
		}
		seen[records[i].Path] = struct{}{}

		entry, err := records[i].toEntry()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %w", ErrCorruptStore, s.path, i, err)
		}
		entries = append(entries, entry)
	}

	log.Debug().Str("path", s.path).Int("games", len(entries)).Msg("loaded catalog")
	return entries, nil
}

// Save replaces the document with entries, in order.
func (s *Store) Save(entries []catalog.GameEntry) error {
	records := make([]record, 0, len(entries))
	for i := range entries {
		records = append(records, fromEntry(&entries[i]))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: encoding catalog: %w", ErrIO, err)
	}

	if err := s.writeAtomic(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, s.path, err)
	}
	return nil
}

func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if rmErr := s.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn().Err(rmErr).Str("path", tmpName).Msg("failed to remove temp catalog file")
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}

// Quarantine moves the current document aside to <path>.corrupt-<unix time>
// and returns the new location. Used on corrupt documents so the next Save
// does not overwrite what could still be recovered by hand.
func (s *Store) Quarantine() (string, error) {
	base := s.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	dest := base
	for i := 1; ; i++ {
		exists, err := afero.Exists(s.fs, dest)
		if err != nil {
			return "", fmt.Errorf("%w: checking %s: %w", ErrIO, dest, err)
		}
		if !exists {
			break
		}
		dest = base + "." + strconv.Itoa(i)
	}

	if err := s.fs.Rename(s.path, dest); err != nil {
		return "", fmt.Errorf("%w: quarantining %s: %w", ErrIO, s.path, err)
	}
	log.Warn().Str("path", s.path).Str("moved_to", dest).Msg("quarantined corrupt catalog")
	return dest, nil
}
