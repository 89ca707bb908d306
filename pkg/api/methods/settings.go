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

package methods

import (
	"runtime"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/rs/zerolog/log"
)

func HandleSettings(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received settings request")

	return models.SettingsResponse{
		CatalogFile:    env.State.StorePath(),
		LogFile:        helpers.LogPath(env.Dirs.Log),
		WorkingDir:     env.Config.LaunchWorkingDir(),
		GameCount:      env.State.GameCount(),
		APIPort:        env.Config.APIPort(),
		DebugLogging:   env.Config.DebugLogging(),
		HistoryEnabled: env.Config.PlaytimeHistory() && env.History != nil,
	}, nil
}

func HandleVersion(_ requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received version request")
	return models.VersionResponse{
		Version:  config.AppVersion,
		Platform: runtime.GOOS,
	}, nil
}
