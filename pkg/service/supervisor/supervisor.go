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

// Package supervisor launches cataloged games as child processes and credits
// their playtime when they exit.
//
// A launch moves through Validating, Spawning and Running synchronously in
// Launch. A dedicated waiter goroutine then blocks on the process, without
// holding any lock, and on exit moves the instance through Reconciling to
// Idle: the instance is removed, the elapsed time is added to the game and
// the catalog is saved in a single critical section.
package supervisor

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/notifications"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/command"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/state"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	ErrSpawn          = errors.New("failed to start game")
	ErrAlreadyRunning = errors.New("game already running")
)

// LaunchState is the lifecycle stage of a launch.
type LaunchState int

const (
	Validating LaunchState = iota
	Spawning
	Running
	Reconciling
	Idle
	Failed
)

func (s LaunchState) String() string {
	switch s {
	case Validating:
		return "validating"
	case Spawning:
		return "spawning"
	case Running:
		return "running"
	case Reconciling:
		return "reconciling"
	case Idle:
		return "idle"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("LaunchState(%d)", int(s))
	}
}

// RunningInstance is a game that has been launched and not yet reconciled.
// StartTime and Pid are zero while the instance is Spawning.
type RunningInstance struct {
	StartTime time.Time
	Path      string
	Name      string
	SessionID string
	Pid       int
	State     LaunchState
	// entryID is the catalog identity the game was launched as. Playtime is
	// only credited while the catalog still holds that same entry.
	entryID uint64
}

// SessionRecorder stores finished sessions.
type SessionRecorder interface {
	AddSession(s *database.Session) error
}

// Supervisor owns the registry of running games, keyed by session ID. The
// registry is only read and written inside state.View and state.Update
// closures, so it shares the catalog's lock.
type Supervisor struct {
	st      *state.State
	cfg     *config.Instance
	spawner command.Spawner
	history SessionRecorder
	clock   clockwork.Clock
	running map[string]*RunningInstance
	wg      sync.WaitGroup
}

// New creates a supervisor. history may be nil to disable the session log.
func New(
	st *state.State,
	cfg *config.Instance,
	spawner command.Spawner,
	history SessionRecorder,
) *Supervisor {
	if spawner == nil {
		spawner = &command.RealSpawner{}
	}
	return &Supervisor{
		st:      st,
		cfg:     cfg,
		spawner: spawner,
		history: history,
		clock:   st.Clock(),
		running: make(map[string]*RunningInstance),
	}
}

func (s *Supervisor) fail(path, reason string, err error) error {
	log.Warn().Err(err).Str("path", path).Str("reason", reason).
		Stringer("state", Failed).Msg("launch failed")
	notifications.LaunchFailed(s.st.Notifications, models.LaunchFailedPayload{
		Path:   path,
		Reason: reason,
		Error:  err.Error(),
	})
	return err
}

func (s *Supervisor) workingDir(path string) string {
	if s.cfg == nil || s.cfg.LaunchWorkingDir() == config.WorkingDirGame {
		return filepath.Dir(path)
	}
	return ""
}

// Launch starts the game at path and returns once the process exists. The
// game is credited with its playtime in the background when it exits.
func (s *Supervisor) Launch(path string) (RunningInstance, error) {
	log.Debug().Str("path", path).Stringer("state", Validating).Msg("launch")

	// missing files are reported before unknown paths
	if err := s.st.ExecutableExists(path); err != nil {
		return RunningInstance{}, s.fail(path, models.LaunchFailedExecutableMissing, err)
	}

	// reserve before spawning so a second launch of the same path fails
	// instead of racing this one
	var (
		inst       *RunningInstance
		reserveErr error
	)
	s.st.View(func(c *catalog.Catalog) {
		entry, err := c.Find(path)
		if err != nil {
			reserveErr = err
			return
		}
		id, _ := c.EntryID(path)
		if s.findLocked(path, id) != nil {
			reserveErr = fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
			return
		}
		inst = &RunningInstance{
			Path:      path,
			Name:      entry.Name,
			SessionID: uuid.New().String(),
			State:     Spawning,
			entryID:   id,
		}
		s.running[inst.SessionID] = inst
	})
	switch {
	case errors.Is(reserveErr, ErrAlreadyRunning):
		return RunningInstance{}, s.fail(path, models.LaunchFailedAlreadyRunning, reserveErr)
	case reserveErr != nil:
		return RunningInstance{}, s.fail(path, models.LaunchFailedNotFound, reserveErr)
	}

	log.Debug().Str("path", path).Stringer("state", Spawning).Msg("launch")
	proc, err := s.spawner.Start(command.StartOptions{
		Dir:        s.workingDir(path),
		HideWindow: false,
		Detach:     true,
	}, path)
	if err != nil {
		s.st.View(func(*catalog.Catalog) {
			delete(s.running, inst.SessionID)
		})
		return RunningInstance{}, s.fail(
			path,
			models.LaunchFailedSpawn,
			fmt.Errorf("%w: %s: %w", ErrSpawn, path, err),
		)
	}

	var started RunningInstance
	s.st.View(func(*catalog.Catalog) {
		inst.Pid = proc.Pid()
		inst.StartTime = s.clock.Now()
		inst.State = Running
		started = *inst
	})

	log.Info().
		Str("path", path).
		Int("pid", started.Pid).
		Str("session", started.SessionID).
		Msg("game started")
	notifications.LaunchStarted(s.st.Notifications, models.LaunchStartedPayload{
		Started:   started.StartTime,
		Path:      started.Path,
		Name:      started.Name,
		SessionID: started.SessionID,
		Pid:       started.Pid,
	})

	s.wg.Add(1)
	go s.wait(started, proc)

	return started, nil
}

func (s *Supervisor) wait(inst RunningInstance, proc command.Process) {
	defer s.wg.Done()

	exitCode, waitErr := proc.Wait()
	ended := s.clock.Now()
	elapsed := ended.Sub(inst.StartTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	logEvent := log.Info()
	if waitErr != nil {
		logEvent = log.Warn().Err(waitErr)
	}
	logEvent.Str("path", inst.Path).
		Int("pid", inst.Pid).
		Int("exit_code", exitCode).
		Float64("seconds", elapsed).
		Stringer("state", Reconciling).
		Msg("game exited")

	var (
		total    float64
		credited bool
	)
	saveErr := s.st.Update(func(c *catalog.Catalog) error {
		if r, ok := s.running[inst.SessionID]; ok {
			r.State = Reconciling
			delete(s.running, inst.SessionID)
		}
		// a path removed and added again while running is a different game
		if id, ok := c.EntryID(inst.Path); !ok || id != inst.entryID {
			log.Info().Str("path", inst.Path).Msg("game removed while running, playtime not credited")
			return nil
		}
		var err error
		total, err = c.AccruePlaytime(inst.Path, elapsed)
		if err != nil {
			return err
		}
		credited = true
		return nil
	})
	if saveErr != nil {
		log.Error().Err(saveErr).Str("path", inst.Path).Msg("failed to persist playtime")
	}

	notifications.PlaytimeUpdated(s.st.Notifications, models.PlaytimeUpdatedPayload{
		Path:      inst.Path,
		SessionID: inst.SessionID,
		Playtime:  total,
		Session:   elapsed,
		ExitCode:  exitCode,
		Credited:  credited,
	})

	if s.history != nil && (s.cfg == nil || s.cfg.PlaytimeHistory()) {
		err := s.history.AddSession(&database.Session{
			StartedAt: inst.StartTime,
			EndedAt:   ended,
			ID:        inst.SessionID,
			Path:      inst.Path,
			Name:      inst.Name,
			Seconds:   elapsed,
			ExitCode:  exitCode,
		})
		if err != nil {
			log.Error().Err(err).Str("path", inst.Path).Msg("failed to record play session")
		}
	}

	log.Debug().Str("path", inst.Path).Stringer("state", Idle).Msg("launch")
}

// findLocked returns the instance launched for the catalog entry id at
// path. Must be called inside View or Update.
func (s *Supervisor) findLocked(path string, id uint64) *RunningInstance {
	for _, r := range s.running {
		if r.Path == path && r.entryID == id {
			return r
		}
	}
	return nil
}

// IsRunning reports whether the game cataloged at path has a running or
// spawning instance. A process left over from a removed entry does not
// count.
func (s *Supervisor) IsRunning(path string) bool {
	var running bool
	s.st.View(func(c *catalog.Catalog) {
		id, ok := c.EntryID(path)
		running = ok && s.findLocked(path, id) != nil
	})
	return running
}

// Running returns a copy of every running instance, oldest first. Instances
// still spawning are left out.
func (s *Supervisor) Running() []RunningInstance {
	var out []RunningInstance
	s.st.View(func(*catalog.Catalog) {
		out = make([]RunningInstance, 0, len(s.running))
		for _, r := range s.running {
			if r.State == Running {
				out = append(out, *r)
			}
		}
	})
	slices.SortFunc(out, func(a, b RunningInstance) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return a.Pid - b.Pid
	})
	return out
}

// Wait blocks until every waiter goroutine has reconciled its game.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
