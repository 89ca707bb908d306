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

// Package service wires the catalog state, the game supervisor, the play
// history and the API server together and runs them until stopped.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/historydb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/state"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/supervisor"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Options tweaks how the service is assembled. The zero value runs real
// games on the real filesystem.
type Options struct {
	Fs      afero.Fs
	Clock   clockwork.Clock
	Spawner command.Spawner
}

func openHistory(ctx context.Context, cfg *config.Instance, dataDir string) database.HistoryDBI {
	path := filepath.Join(dataDir, config.HistoryDbFile)
	log.Debug().Str("path", path).Msg("opening history database")
	db, err := historydb.Open(ctx, path)
	if err != nil {
		log.Error().Err(err).Msg("failed to open history database, play history disabled")
		return nil
	}
	cleanupHistoryOnStartup(cfg, db)
	return db
}

func cleanupHistoryOnStartup(cfg *config.Instance, db database.HistoryDBI) {
	retention := cfg.PlaytimeRetention()
	if retention <= 0 {
		log.Debug().Msg("play history cleanup disabled (retention set to 0)")
		return
	}

	log.Info().Msgf("cleaning up play history older than %d days", retention)
	rowsDeleted, err := db.CleanupSessions(retention)
	switch {
	case err != nil:
		log.Error().Err(err).Msg("error cleaning up play history")
	case rowsDeleted > 0:
		log.Info().Msgf("deleted %d old play sessions", rowsDeleted)
	default:
		log.Debug().Msg("no old play sessions to clean up")
	}
}

// Start brings the service up and returns once the API is accepting
// connections. stop shuts everything down; done is closed when the service
// has stopped, whether through stop or an internal failure.
//
// Games still running at shutdown are left running and their current
// session is not credited.
func Start(
	cfg *config.Instance,
	dirs helpers.Dirs,
	opts Options,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	if err := helpers.EnsureDirectories(dirs); err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, nil, err
	}

	store := catalogdb.NewStore(opts.Fs, cfg.CatalogFile(dirs.Data))
	st, ns, err := state.NewState(store, opts.Fs, opts.Clock)
	if err != nil {
		log.Error().Err(err).Msg("error loading catalog")
		return nil, nil, err
	}

	notifBroker := broker.New(ns)

	history := openHistory(st.Context(), cfg, dirs.Data)
	sup := supervisor.New(st, cfg, opts.Spawner, history)

	log.Info().Msg("starting API service")
	ln, err := api.Listen(cfg)
	if err != nil {
		st.StopService()
		closeHistory(history)
		return nil, nil, err
	}
	server := api.NewServer(requests.RequestEnv{
		Config:     cfg,
		State:      st,
		Supervisor: sup,
		History:    history,
		Dirs:       dirs,
	}, api.NewMethodMap(), notifBroker)

	g, ctx := errgroup.WithContext(st.Context())
	g.Go(func() error {
		return notifBroker.Run(ctx)
	})
	g.Go(func() error {
		return server.Serve(ctx, ln)
	})
	g.Go(func() error {
		return watchConfig(ctx, cfg)
	})

	if warn := st.LoadWarning(); warn != nil {
		notifications.CatalogWarning(st.Notifications, models.CatalogWarningCorrupt, warn)
	}

	doneCh := make(chan struct{})
	var runErr error
	go func() {
		runErr = g.Wait()
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error().Err(runErr).Msg("service stopped with error")
		}
		// an internal failure stops the service too
		st.StopService()

		if n := len(sup.Running()); n > 0 {
			log.Warn().Int("games", n).Msg("games still running at shutdown, their sessions are not credited")
		}
		closeHistory(history)

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		st.StopService()
		<-doneCh
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("service stopped with error: %w", runErr)
		}
		return nil
	}
	return stop, doneCh, nil
}

func closeHistory(db database.HistoryDBI) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing history database")
	}
}
