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
	"io/fs"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/scanner"
	"github.com/rs/zerolog/log"
)

func isRunning(env *requests.RequestEnv, path string) bool {
	return env.Supervisor != nil && env.Supervisor.IsRunning(path)
}

func gamesResponse(env *requests.RequestEnv, entries []catalog.GameEntry) models.GamesResponse {
	resp := models.GamesResponse{
		Games: make([]models.GameResponse, 0, len(entries)),
		Total: len(entries),
	}
	for i := range entries {
		resp.Games = append(resp.Games, models.NewGameResponse(&entries[i], isRunning(env, entries[i].Path)))
	}
	return resp
}

func HandleGames(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	log.Info().Msg("received games request")
	return gamesResponse(&env, env.State.Games()), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesSearch(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games search request")

	var params models.SearchParams
	if len(env.Params) > 0 && string(env.Params) != "null" {
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
	}

	return gamesResponse(&env, env.State.SearchGames(params.Query)), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesAdd(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games add request")

	var params models.AddGameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var name string
	if params.Name != nil {
		name = *params.Name
	}

	// a store error still leaves the game added in memory, the error code
	// tells the client so
	entry, err := env.State.AddGame(params.Path, name)
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped to error codes
	}

	return models.NewGameResponse(&entry, false), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesRemove(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games remove request")

	var params models.PathParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	removed, err := env.State.RemoveGame(params.Path)
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped to error codes
	}
	return models.RemoveGameResponse{Removed: removed}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesCover(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games cover request")

	var params models.CoverParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	updated, err := env.State.UpdateCover(params.Path, params.Cover)
	if err != nil {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped to error codes
	}
	return models.CoverResponse{Updated: updated}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesScan(env requests.RequestEnv) (any, error) {
	log.Info().Msg("received games scan request")

	var params models.ScanParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	res, err := scanner.Scan(env.Context, env.State, params.Dir)
	if errors.Is(err, scanner.ErrNotDirectory) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	} else if err != nil && len(res.Added) == 0 {
		return nil, err //nolint:wrapcheck // sentinel errors are mapped to error codes
	}

	resp := models.ScanResponse{
		Added:   make([]models.GameResponse, 0, len(res.Added)),
		Skipped: res.Skipped,
	}
	for i := range res.Added {
		resp.Added = append(resp.Added, models.NewGameResponse(&res.Added[i], false))
	}
	// games added before a failure stay cataloged, report them with the error
	return resp, err //nolint:wrapcheck // sentinel errors are mapped to error codes
}
