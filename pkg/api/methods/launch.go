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
	"errors"
	"fmt"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/rs/zerolog/log"
)

var ErrNoSupervisor = errors.New("game launching is not available")

//nolint:gocritic // single-use parameter in API handler
func HandleGamesLaunch(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games launch request")

	var params models.PathParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if env.Supervisor == nil {
		return nil, ErrNoSupervisor
	}

	inst, err := env.Supervisor.Launch(params.Path)
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped to error codes
	}

	return models.LaunchResponse{
		SessionID: inst.SessionID,
		Pid:       inst.Pid,
		Accepted:  true,
	}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesRunning(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games running request")

	resp := models.RunningResponse{
		Running: make([]models.RunningGameResponse, 0),
	}
	if env.Supervisor == nil {
		return resp, nil
	}

	now := env.State.Clock().Now()
	for _, inst := range env.Supervisor.Running() {
		r := models.RunningGameResponse{
			Started:   inst.StartTime,
			Path:      inst.Path,
			Name:      inst.Name,
			SessionID: inst.SessionID,
			Pid:       inst.Pid,
			Elapsed:   max(now.Sub(inst.StartTime).Seconds(), 0),
		}

		stats, err := helpers.GetProcessStats(env.Context, inst.Pid)
		if err != nil {
			log.Debug().Err(err).Int("pid", inst.Pid).Msg("failed to read process stats")
		} else if stats.Running {
			rss := stats.RSSBytes
			r.RSSBytes = &rss
		}

		resp.Running = append(resp.Running, r)
	}
	return resp, nil
}
