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

// Package state owns the service's single mutation lock, the in-memory game
// catalog and its store. Every catalog read and write, and the supervisor's
// running game registry, goes through View or Update.
package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// NotificationBuffer is the capacity of the notification channel. Sends
// never block, a full channel drops the notification with a warning.
const NotificationBuffer = 500

// Store persists the catalog.
type Store interface {
	Load() ([]catalog.GameEntry, error)
	Save(entries []catalog.GameEntry) error
	Quarantine() (string, error)
	Path() string
}

// State holds the runtime state of the Shelf service.
//
// LOCKING RULES: mu protects the catalog and everything the supervisor keeps
// about running games. To prevent deadlocks:
//   - Never send to channels while holding the lock
//   - Never wait on a process while holding the lock
//   - Pattern: lock → modify state → persist → copy needed data → unlock → send notifications
type State struct {
	ctx           context.Context
	store         Store
	fs            afero.Fs
	clock         clockwork.Clock
	catalog       *catalog.Catalog
	loadWarning   error
	ctxCancelFunc context.CancelFunc
	Notifications chan<- models.Notification
	mu            syncutil.Mutex
}

// NewState loads the catalog from store. A corrupt document is moved aside
// and the service starts with an empty catalog; the problem is kept as a
// load warning. Any other load error is returned.
func NewState(
	store Store,
	filesystem afero.Fs,
	clock clockwork.Clock,
) (state *State, notificationCh <-chan models.Notification, err error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var loadWarning error
	entries, err := store.Load()
	switch {
	case errors.Is(err, catalogdb.ErrCorruptStore):
		loadWarning = err
		moved, qErr := store.Quarantine()
		if qErr != nil {
			return nil, nil, fmt.Errorf("catalog is corrupt and could not be moved aside: %w", errors.Join(err, qErr))
		}
		log.Error().Err(err).Str("moved_to", moved).Msg("catalog is corrupt, starting with an empty catalog")
		entries = nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	c, err := catalog.FromEntries(entries)
	if err != nil {
		// the store already rejects duplicates, this is a store bug
		return nil, nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	log.Info().
		Str("path", store.Path()).
		Int("games", c.Len()).
		Msg("loaded catalog")

	ns := make(chan models.Notification, NotificationBuffer)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
		store:         store,
		fs:            filesystem,
		clock:         clock,
		catalog:       c,
		loadWarning:   loadWarning,
		Notifications: ns,
	}, ns, nil
}

// LoadWarning returns the error that caused the catalog to be reset on
// startup, or nil.
func (s *State) LoadWarning() error {
	return s.loadWarning
}

func (s *State) Clock() clockwork.Clock {
	return s.clock
}

func (s *State) StorePath() string {
	return s.store.Path()
}

func (s *State) Context() context.Context {
	return s.ctx
}

// StopService cancels the service context. It is safe to call more than
// once.
func (s *State) StopService() {
	s.ctxCancelFunc()
}

// View runs fn with the catalog under the lock. fn must not keep the
// catalog or block.
func (s *State) View(fn func(c *catalog.Catalog)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.catalog)
}

// Update runs fn with the catalog under the lock. If fn succeeds and the
// catalog changed, the whole catalog is saved before the lock is released.
// A save failure is returned wrapped in catalogdb.ErrIO and the change stays
// applied in memory; it is retried on the next successful mutation.
func (s *State) Update(fn func(c *catalog.Catalog) error) error {
	s.mu.Lock()
	err := fn(s.catalog)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	saveErr := s.saveLocked()
	s.mu.Unlock()

	if saveErr != nil {
		notifications.CatalogWarning(s.Notifications, models.CatalogWarningIO, saveErr)
		return saveErr
	}
	return nil
}

func (s *State) saveLocked() error {
	if !s.catalog.Dirty() {
		return nil
	}
	if err := s.store.Save(s.catalog.Entries()); err != nil {
		log.Error().Err(err).Msg("failed to save catalog, changes kept in memory")
		if errors.Is(err, catalogdb.ErrIO) {
			return err
		}
		return fmt.Errorf("%w: %w", catalogdb.ErrIO, err)
	}
	s.catalog.MarkClean()
	return nil
}

// ExecutableExists reports whether path is an existing regular file.
func (s *State) ExecutableExists(path string) error {
	info, err := s.fs.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", catalog.ErrExecutableNotFound, path)
	case err != nil:
		return fmt.Errorf("%w: %s: %w", catalog.ErrExecutableNotFound, path, err)
	case info.IsDir():
		return fmt.Errorf("%w: %s is a directory", catalog.ErrExecutableNotFound, path)
	}
	return nil
}

// AddGame adds the executable at path to the catalog. name overrides the
// name derived from the file name when not empty. When only saving fails
// the entry is returned along with the error.
func (s *State) AddGame(path, name string) (catalog.GameEntry, error) {
	if err := s.ExecutableExists(path); err != nil {
		return catalog.GameEntry{}, err
	}

	var entry catalog.GameEntry
	err := s.Update(func(c *catalog.Catalog) error {
		var addErr error
		entry, addErr = c.Add(path, name, s.clock.Now())
		return addErr
	})
	if entry.Path == "" {
		return entry, err
	}

	log.Info().Str("path", entry.Path).Str("name", entry.Name).Msg("added game")
	notifications.GamesAdded(s.Notifications, models.NewGameResponse(&entry, false))
	return entry, err
}

// RemoveGame deletes path from the catalog. Removing an absent path is a
// no-op returning false.
func (s *State) RemoveGame(path string) (bool, error) {
	var removed bool
	err := s.Update(func(c *catalog.Catalog) error {
		removed = c.Remove(path)
		return nil
	})
	if !removed {
		return false, err
	}

	log.Info().Str("path", path).Msg("removed game")
	notifications.GamesRemoved(s.Notifications, path)
	return true, err
}

// UpdateCover sets the cover image of a game. Returns true if the cover
// changed.
func (s *State) UpdateCover(path, cover string) (bool, error) {
	var (
		entry   catalog.GameEntry
		changed bool
	)
	err := s.Update(func(c *catalog.Catalog) error {
		before, err := c.Find(path)
		if err != nil {
			return err
		}
		if err := c.UpdateCover(path, cover); err != nil {
			return err
		}
		changed = before.Cover != cover
		entry, err = c.Find(path)
		return err
	})
	if !changed {
		return false, err
	}

	log.Info().Str("path", path).Str("cover", cover).Msg("updated game cover")
	notifications.GamesCover(s.Notifications, models.NewGameResponse(&entry, false))
	return true, err
}

// SearchGames returns games whose name contains text, ignoring case.
func (s *State) SearchGames(text string) []catalog.GameEntry {
	var results []catalog.GameEntry
	s.View(func(c *catalog.Catalog) {
		results = c.Search(text)
	})
	return results
}

// Games returns every game in catalog order.
func (s *State) Games() []catalog.GameEntry {
	var entries []catalog.GameEntry
	s.View(func(c *catalog.Catalog) {
		entries = c.Entries()
	})
	return entries
}

func (s *State) FindGame(path string) (catalog.GameEntry, error) {
	var (
		entry catalog.GameEntry
		err   error
	)
	s.View(func(c *catalog.Catalog) {
		entry, err = c.Find(path)
	})
	return entry, err
}

func (s *State) GameCount() int {
	var n int
	s.View(func(c *catalog.Catalog) {
		n = c.Len()
	})
	return n
}
