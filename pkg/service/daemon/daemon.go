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

// Package daemon manages the service as a background process tracked by a
// pid file in the data directory.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// DaemonFlag is passed to the spawned binary to run the service in the
// foreground of the detached process.
const DaemonFlag = "-daemon"

const (
	startTimeout = 10 * time.Second
	stopTimeout  = 10 * time.Second
	pollInterval = 100 * time.Millisecond
)

var (
	ErrAlreadyRunning = errors.New("service already running")
	ErrNotRunning     = errors.New("service not running")
	ErrStartTimeout   = errors.New("service did not start in time")
	ErrStopTimeout    = errors.New("service did not stop in time")
)

type ServiceEntry func() (stop func() error, done <-chan struct{}, err error)

type ServiceArgs struct {
	Entry   ServiceEntry
	Config  *config.Instance
	Spawner command.Spawner
	Dirs    helpers.Dirs
}

type Service struct {
	start   ServiceEntry
	cfg     *config.Instance
	spawner command.Spawner
	pidPath string
}

func NewService(args ServiceArgs) (*Service, error) {
	err := os.MkdirAll(args.Dirs.Data, 0o750)
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	spawner := args.Spawner
	if spawner == nil {
		spawner = &command.RealSpawner{}
	}

	return &Service{
		start:   args.Entry,
		cfg:     args.Config,
		spawner: spawner,
		pidPath: filepath.Join(args.Dirs.Data, config.PidFile),
	}, nil
}

func (s *Service) createPidFile() error {
	pid := os.Getpid()
	err := os.WriteFile(s.pidPath, []byte(strconv.Itoa(pid)), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (s *Service) removePidFile() error {
	err := os.Remove(s.pidPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Pid returns the pid recorded in the pid file, or 0 if there is none.
func (s *Service) Pid() (int, error) {
	data, err := os.ReadFile(s.pidPath)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// Running returns true if the pid file names a live process. A pid file
// left behind by a crashed service reads as not running.
func (s *Service) Running() bool {
	pid, err := s.Pid()
	if err != nil || pid <= 0 {
		return false
	}

	//nolint:gosec // G115: pids fit in int32 on every supported platform
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

// Run runs the service in the current process until ctx is done, an
// interrupt or terminate signal arrives, or the service stops by itself.
func (s *Service) Run(ctx context.Context) error {
	if s.Running() {
		return ErrAlreadyRunning
	}

	log.Info().Msg("starting service")

	if err := s.createPidFile(); err != nil {
		return err
	}
	defer func() {
		if err := s.removePidFile(); err != nil {
			log.Error().Err(err).Msg("error removing pid file")
		}
	}()

	stop, done, err := s.start()
	if err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	select {
	case <-ctx.Done():
		log.Info().Msg("stopping service")
	case <-done:
		log.Info().Msg("service shut down internally")
	}

	if err := stop(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return err
	}
	return nil
}

// Start launches the service as a detached background process and waits
// for its API to answer.
func (s *Service) Start() error {
	if s.Running() {
		return ErrAlreadyRunning
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error getting absolute binary path: %w", err)
	}

	proc, err := s.spawner.Start(command.StartOptions{
		Detach:     true,
		HideWindow: true,
	}, exePath, DaemonFlag)
	if err != nil {
		return fmt.Errorf("error starting daemon: %w", err)
	}
	log.Info().Int("pid", proc.Pid()).Msg("started daemon")

	// reap the child if it exits while we are still around
	go func() {
		code, err := proc.Wait()
		log.Debug().Int("code", code).Err(err).Msg("daemon process exited")
	}()

	if !client.WaitForAPI(s.cfg, startTimeout, pollInterval) {
		return ErrStartTimeout
	}
	return nil
}

// Stop asks the background service to terminate and waits for it to exit.
func (s *Service) Stop() error {
	if !s.Running() {
		// clear a stale pid file
		if err := s.removePidFile(); err != nil {
			return err
		}
		return ErrNotRunning
	}

	pid, err := s.Pid()
	if err != nil {
		return err
	}

	//nolint:gosec // G115: pids fit in int32 on every supported platform
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("error finding service process: %w", err)
	}
	if err := proc.Terminate(); err != nil {
		return fmt.Errorf("error stopping service: %w", err)
	}

	deadline := time.Now().Add(stopTimeout)
	for time.Now().Before(deadline) {
		if !s.Running() {
			return nil
		}
		time.Sleep(pollInterval)
	}
	return ErrStopTimeout
}
