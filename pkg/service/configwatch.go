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

package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDelay collapses the burst of events editors produce for one save.
const reloadDelay = 250 * time.Millisecond

func reloadConfig(cfg *config.Instance) {
	if err := cfg.Load(); err != nil {
		log.Error().Err(err).Msg("error reloading config, keeping current settings")
		return
	}
	helpers.SetDebugLogging(cfg.DebugLogging())
	log.Info().Bool("debug_logging", cfg.DebugLogging()).Msg("config reloaded")
}

// watchConfig reloads the config file whenever it changes on disk, until
// ctx is done. The directory is watched rather than the file so saves that
// replace the file are seen.
func watchConfig(ctx context.Context, cfg *config.Instance) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config watcher unavailable, live reload disabled")
		return nil
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing config watcher")
		}
	}()

	cfgPath := filepath.Clean(cfg.Path())
	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		log.Warn().Err(err).Str("dir", filepath.Dir(cfgPath)).
			Msg("could not watch config directory, live reload disabled")
		return nil
	}

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cfgPath || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			timer.Reset(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		case <-timer.C:
			reloadConfig(cfg)
		}
	}
}
