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

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/testing/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.Local)

type testEnv struct {
	fs    *helpers.FSHelper
	store *catalogdb.Store
	state *State
	ns    <-chan models.Notification
}

func storePath() string {
	return helpers.AbsPath("data", "zaparoo-shelf", "games.json")
}

func newTestEnv(t *testing.T, existing string) *testEnv {
	t.Helper()

	fsh := helpers.NewMemoryFS()
	if existing != "" {
		require.NoError(t, fsh.WriteFile(storePath(), []byte(existing)))
	}
	store := catalogdb.NewStore(fsh.Fs, storePath())
	st, ns, err := NewState(store, fsh.Fs, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, err)

	return &testEnv{fs: fsh, store: store, state: st, ns: ns}
}

func (e *testEnv) game(t *testing.T, name string) string {
	t.Helper()
	path := helpers.AbsPath("games", name)
	require.NoError(t, e.fs.CreateGame(path))
	return path
}

func drain(ns <-chan models.Notification) []models.Notification {
	var out []models.Notification
	for {
		select {
		case n := <-ns:
			out = append(out, n)
		default:
			return out
		}
	}
}

// failingStore wraps a real store and fails saves while saveErr is set.
type failingStore struct {
	*catalogdb.Store
	saveErr error
	loadErr error
}

func (f *failingStore) Load() ([]catalog.GameEntry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.Store.Load()
}

func (f *failingStore) Save(entries []catalog.GameEntry) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(entries)
}

func TestNewState_MissingFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	assert.Zero(t, env.state.GameCount())
	require.NoError(t, env.state.LoadWarning())
	assert.Equal(t, storePath(), env.state.StorePath())
}

func TestNewState_LoadsExisting(t *testing.T) {
	t.Parallel()

	path, err := json.Marshal(helpers.AbsPath("games", "doom.exe"))
	require.NoError(t, err)
	doc := `[{"name": "Doom", "path": ` + string(path) +
		`, "cover": "", "playtime": 12.5, "added_date": "2026-01-02 15:04:05"}]`

	env := newTestEnv(t, doc)
	games := env.state.Games()
	require.Len(t, games, 1)
	assert.Equal(t, "Doom", games[0].Name)
	assert.InDelta(t, 12.5, games[0].Playtime, 1e-9)
}

func TestNewState_CorruptIsQuarantined(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, `{"not": "a list"`)

	warning := env.state.LoadWarning()
	require.ErrorIs(t, warning, catalogdb.ErrCorruptStore)
	assert.Zero(t, env.state.GameCount())

	exists, err := afero.Exists(env.fs.Fs, storePath())
	require.NoError(t, err)
	assert.False(t, exists, "corrupt file should have been moved aside")

	matches, err := afero.Glob(env.fs.Fs, storePath()+".corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := afero.ReadFile(env.fs.Fs, matches[0])
	require.NoError(t, err)
	assert.Equal(t, `{"not": "a list"`, string(data))

	// the next mutation writes a fresh document without touching the backup
	_, err = env.state.AddGame(env.game(t, "doom.exe"), "")
	require.NoError(t, err)
	entries, err := env.store.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewState_IOErrorFails(t *testing.T) {
	t.Parallel()

	fsh := helpers.NewMemoryFS()
	store := &failingStore{
		Store:   catalogdb.NewStore(fsh.Fs, storePath()),
		loadErr: catalogdb.ErrIO,
	}
	_, _, err := NewState(store, fsh.Fs, nil)
	require.ErrorIs(t, err, catalogdb.ErrIO)
}

func TestAddGame(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	path := env.game(t, "Ведьмак.exe")

	entry, err := env.state.AddGame(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Ведьмак", entry.Name)
	assert.True(t, entry.AddedDate.Equal(testNow))

	// persisted immediately
	entries, err := env.store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].Path)

	ns := drain(env.ns)
	require.Len(t, ns, 1)
	assert.Equal(t, models.NotificationGamesAdded, ns[0].Method)
}

func TestAddGame_Errors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	path := env.game(t, "doom.exe")
	_, err := env.state.AddGame(path, "")
	require.NoError(t, err)
	drain(env.ns)

	_, err = env.state.AddGame(path, "Doom again")
	require.ErrorIs(t, err, catalog.ErrDuplicate)

	_, err = env.state.AddGame(helpers.AbsPath("games", "missing.exe"), "")
	require.ErrorIs(t, err, catalog.ErrExecutableNotFound)

	_, err = env.state.AddGame(helpers.AbsPath("games"), "")
	require.ErrorIs(t, err, catalog.ErrExecutableNotFound, "directories are not executables")

	assert.Equal(t, 1, env.state.GameCount())
	assert.Empty(t, drain(env.ns), "failed adds must not notify")
}

func TestRemoveGame(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	a, b := env.game(t, "a.exe"), env.game(t, "b.exe")
	for _, p := range []string{a, b} {
		_, err := env.state.AddGame(p, "")
		require.NoError(t, err)
	}
	drain(env.ns)

	removed, err := env.state.RemoveGame(helpers.AbsPath("games", "missing.exe"))
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Empty(t, drain(env.ns))

	removed, err = env.state.RemoveGame(a)
	require.NoError(t, err)
	assert.True(t, removed)

	entries, err := env.store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b, entries[0].Path)

	ns := drain(env.ns)
	require.Len(t, ns, 1)
	assert.Equal(t, models.NotificationGamesRemoved, ns[0].Method)
}

func TestUpdateCover(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	path := env.game(t, "doom.exe")
	_, err := env.state.AddGame(path, "")
	require.NoError(t, err)
	drain(env.ns)

	cover := helpers.AbsPath("covers", "doom.png")
	changed, err := env.state.UpdateCover(path, cover)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = env.state.UpdateCover(path, cover)
	require.NoError(t, err)
	assert.False(t, changed)

	entries, err := env.store.Load()
	require.NoError(t, err)
	assert.Equal(t, cover, entries[0].Cover)
	assert.Len(t, drain(env.ns), 1)

	_, err = env.state.UpdateCover(helpers.AbsPath("games", "missing.exe"), cover)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSearchGames(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	for _, n := range []string{"Doom.exe", "Quake.exe", "doom2.exe"} {
		_, err := env.state.AddGame(env.game(t, n), "")
		require.NoError(t, err)
	}

	results := env.state.SearchGames("DOOM")
	require.Len(t, results, 2)
	assert.Equal(t, "Doom", results[0].Name)
	assert.Equal(t, "doom2", results[1].Name)

	found, err := env.state.FindGame(results[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "doom2", found.Name)
}

func TestUpdate_SaveFailureKeepsChange(t *testing.T) {
	t.Parallel()

	fsh := helpers.NewMemoryFS()
	store := &failingStore{Store: catalogdb.NewStore(fsh.Fs, storePath())}
	st, ns, err := NewState(store, fsh.Fs, clockwork.NewFakeClockAt(testNow))
	require.NoError(t, err)

	path := helpers.AbsPath("games", "doom.exe")
	require.NoError(t, fsh.CreateGame(path))

	store.saveErr = errors.New("disk full")
	entry, err := st.AddGame(path, "")
	require.ErrorIs(t, err, catalogdb.ErrIO)
	assert.Equal(t, path, entry.Path, "entry is returned with the save error")
	assert.Equal(t, 1, st.GameCount(), "change stays applied in memory")

	methods := make([]string, 0)
	for _, n := range drain(ns) {
		methods = append(methods, n.Method)
	}
	assert.ElementsMatch(t, []string{models.NotificationCatalogWarning, models.NotificationGamesAdded}, methods)

	// the dirty catalog is saved with the next successful mutation
	store.saveErr = nil
	_, err = st.UpdateCover(path, helpers.AbsPath("covers", "doom.png"))
	require.NoError(t, err)
	entries, err := store.Store.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUpdate_ErrorSkipsSave(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	sentinel := errors.New("nope")
	err := env.state.Update(func(c *catalog.Catalog) error {
		_, _ = c.Add(helpers.AbsPath("games", "x.exe"), "", testNow)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	exists, err := afero.Exists(env.fs.Fs, storePath())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestState_NoDeadlockWhenNotificationsAreNotConsumed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	const n = NotificationBuffer + 50

	paths := make([]string, n)
	for i := range paths {
		paths[i] = env.game(t, filepath.Join("many", fmt.Sprintf("game-%03d.exe", i)))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for _, p := range paths {
			wg.Go(func() {
				_, _ = env.state.AddGame(p, "")
			})
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("state blocked on a full notification channel")
	}
	assert.Equal(t, n, env.state.GameCount())
	assert.Len(t, env.ns, NotificationBuffer)
}

func TestStopService(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, "")
	require.NoError(t, env.state.Context().Err())
	env.state.StopService()
	env.state.StopService()
	<-env.state.Context().Done()
}
