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
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/rs/zerolog/log"
)

var ErrHistoryUnavailable = errors.New("play history is not available")

func HandleHistory(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received history request")

	var params models.HistoryParams
	if len(env.Params) > 0 && string(env.Params) != "null" {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}

	if env.History == nil {
		return nil, ErrHistoryUnavailable
	}

	q := database.SessionQuery{Limit: database.DefaultSessionLimit}
	if params.Path != nil {
		q.Path = *params.Path
	}
	if params.LastID != nil {
		q.LastID = *params.LastID
	}
	if params.Limit != nil {
		q.Limit = *params.Limit
	}

	sessions, err := env.History.GetSessions(q)
	if err != nil {
		log.Error().Err(err).Msg("error getting play history")
		return nil, fmt.Errorf("error getting play history: %w", err)
	}

	resp := models.HistoryResponse{
		Sessions: make([]models.SessionResponse, len(sessions)),
	}
	for i, s := range sessions {
		resp.Sessions[i] = models.SessionResponse{
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			SessionID: s.ID,
			Path:      s.Path,
			Name:      s.Name,
			ID:        s.DBID,
			Seconds:   s.Seconds,
			ExitCode:  s.ExitCode,
		}
	}
	return resp, nil
}
