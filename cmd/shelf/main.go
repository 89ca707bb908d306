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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/zaparoo-shelf/internal/telemetry"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/cli"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/daemon"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		telemetry.Flush()
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	flag.Parse()

	if *flags.Version {
		cli.PrintVersion(os.Stdout)
		return nil
	}

	hasAction := cli.HasAction(flag.CommandLine)
	foreground := *flags.Daemon || (!hasAction && *flags.Service == "")

	var logWriters []io.Writer
	if foreground {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}

	dirs := helpers.DefaultDirs()
	cfg, err := cli.Setup(dirs, config.BaseDefaults, logWriters)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	startService := func() (func() error, <-chan struct{}, error) {
		return service.Start(cfg, dirs, service.Options{})
	}

	svc, err := daemon.NewService(daemon.ServiceArgs{
		Entry:  startService,
		Config: cfg,
		Dirs:   dirs,
	})
	if err != nil {
		return fmt.Errorf("error setting up service: %w", err)
	}

	switch {
	case *flags.Service != "":
		return cli.HandleService(svc, *flags.Service, os.Stdout) //nolint:wrapcheck // already wrapped
	case foreground:
		if err := svc.Run(context.Background()); err != nil {
			if errors.Is(err, daemon.ErrAlreadyRunning) {
				return errors.New("service is already running, stop it with -service stop")
			}
			return err //nolint:wrapcheck // already wrapped
		}
		return nil
	}

	if !client.IsServiceRunning(cfg) {
		log.Info().Msg("no service running, starting one for this command")
		stopSvc, _, err := startService()
		if err != nil {
			return fmt.Errorf("error starting service: %w", err)
		}
		defer func() {
			if err := stopSvc(); err != nil {
				log.Error().Err(err).Msg("error stopping service")
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return flags.Run(ctx, flag.CommandLine, client.NewLocalAPIClient(cfg), os.Stdout) //nolint:wrapcheck // already wrapped
}
