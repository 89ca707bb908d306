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

// Package cli implements the shelf command line: flag definitions, process
// setup and the one-shot commands that talk to the service API.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ZaparooProject/zaparoo-shelf/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	Add     *string
	Name    *string
	Remove  *string
	Search  *string
	List    *bool
	Launch  *string
	Cover   *string
	Scan    *string
	Export  *string
	API     *string
	Daemon  *bool
	Service *string
	Version *bool
}

// actionFlags are the flags that send a request to the service.
var actionFlags = []string{
	"add", "remove", "search", "list", "launch", "cover", "scan", "export", "api",
}

// SetupFlags defines every CLI flag on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Add: fs.String(
			"add",
			"",
			"add a game executable to the catalog",
		),
		Name: fs.String(
			"name",
			"",
			"display name for -add, defaults to the file name",
		),
		Remove: fs.String(
			"remove",
			"",
			"remove a game from the catalog by path",
		),
		Search: fs.String(
			"search",
			"",
			"list games whose name contains text",
		),
		List: fs.Bool(
			"list",
			false,
			"list every game in the catalog",
		),
		Launch: fs.String(
			"launch",
			"",
			"launch a game and wait until it exits",
		),
		Cover: fs.String(
			"cover",
			"",
			"set a cover image, as path=image (empty image clears it)",
		),
		Scan: fs.String(
			"scan",
			"",
			"add every executable found under a directory",
		),
		Export: fs.String(
			"export",
			"",
			"export the catalog as CSV to a file, - for stdout",
		),
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the service in the foreground",
		),
		Service: fs.String(
			"service",
			"",
			"manage the background service: start, stop, restart or status",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// HasAction returns true if a flag that needs the service API was passed.
func HasAction(fs *flag.FlagSet) bool {
	for _, name := range actionFlags {
		if isFlagPassed(fs, name) {
			return true
		}
	}
	return false
}

func PrintVersion(out io.Writer) {
	_, _ = fmt.Fprintf(out, "Zaparoo Shelf v%s\n", config.AppVersion)
}

// Setup creates the app directories, starts logging and loads the config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	dirs helpers.Dirs,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	if err := helpers.EnsureDirectories(dirs); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	if err := helpers.InitLogging(dirs.Log, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(dirs.Config, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	helpers.SetDebugLogging(cfg.DebugLogging())

	if err := telemetry.Init(cfg); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
