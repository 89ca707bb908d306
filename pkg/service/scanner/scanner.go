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

// Package scanner bulk adds the executables found under a directory.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/state"
	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog/log"
)

var ErrNotDirectory = errors.New("scan path is not a directory")

// WindowsExtensions are the file types treated as games on Windows, where
// there is no executable bit.
var WindowsExtensions = []string{".exe", ".bat", ".cmd", ".com"}

// Result lists the games added by a scan. Skipped counts executables that
// were found but not added, usually because they were already cataloged.
type Result struct {
	Added   []catalog.GameEntry
	Skipped int
}

// IsExecutable reports whether a file looks like something that can be
// launched directly.
func IsExecutable(goos, name string, mode fs.FileMode) bool {
	if !mode.IsRegular() {
		return false
	}
	if goos == "windows" {
		return slices.Contains(WindowsExtensions, strings.ToLower(filepath.Ext(name)))
	}
	return mode.Perm()&0o111 != 0
}

// Find walks dir and returns every executable below it, sorted by path.
// Hidden directories are not descended into and symlinks are not followed.
func Find(ctx context.Context, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan path: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var (
		mu    sync.Mutex
		found []string
	)
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable path")
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fastwalk.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")
			return nil
		}
		if !IsExecutable(runtime.GOOS, d.Name(), fi.Mode()) {
			return nil
		}
		// walkFn runs on several goroutines at once
		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	}

	conf := fastwalk.Config{Follow: false}
	if err := fastwalk.Walk(&conf, dir, walkFn); err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	slices.Sort(found)
	return found, nil
}

// Scan adds every executable under dir to the catalog. Paths already in the
// catalog are skipped. A store I/O error stops the scan; games added before
// it stay in memory.
func Scan(ctx context.Context, st *state.State, dir string) (Result, error) {
	dir = filepath.Clean(dir)
	if !filepath.IsAbs(dir) {
		return Result{}, fmt.Errorf("%w: scan path must be absolute: %q", catalog.ErrInvalidPath, dir)
	}

	paths, err := Find(ctx, dir)
	if err != nil {
		return Result{}, err
	}

	res := Result{Added: make([]catalog.GameEntry, 0, len(paths))}
	for _, p := range paths {
		if ctx.Err() != nil {
			return res, fmt.Errorf("scan cancelled: %w", ctx.Err())
		}
		entry, err := st.AddGame(p, "")
		switch {
		case err == nil:
			res.Added = append(res.Added, entry)
		case errors.Is(err, catalog.ErrDuplicate), errors.Is(err, catalog.ErrExecutableNotFound):
			res.Skipped++
		case entry.Path != "":
			res.Added = append(res.Added, entry)
			return res, err
		default:
			return res, err
		}
	}

	log.Info().
		Str("dir", dir).
		Int("added", len(res.Added)).
		Int("skipped", res.Skipped).
		Msg("scan finished")
	return res, nil
}
