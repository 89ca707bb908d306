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

package config

import "github.com/rs/zerolog/log"

const (
	// WorkingDirGame starts a game in the directory holding its executable.
	WorkingDirGame = "game"
	// WorkingDirInherit starts a game in the service's working directory.
	WorkingDirInherit = "inherit"
)

type Launch struct {
	WorkingDir string `toml:"working_dir"`
}

// LaunchWorkingDir returns the working directory mode for launched games.
// Unknown values fall back to WorkingDirGame.
func (c *Instance) LaunchWorkingDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.vals.Launch.WorkingDir {
	case WorkingDirGame, WorkingDirInherit:
		return c.vals.Launch.WorkingDir
	case "":
		return WorkingDirGame
	default:
		log.Warn().Str("working_dir", c.vals.Launch.WorkingDir).
			Msg("unknown launch working_dir, using game directory")
		return WorkingDirGame
	}
}

func (c *Instance) SetLaunchWorkingDir(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Launch.WorkingDir = mode
}
