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

package requests

import (
	"context"
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/state"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/supervisor"
)

// RequestEnv is everything an API method handler may use. History is nil
// when the session log could not be opened.
type RequestEnv struct {
	Context    context.Context
	Config     *config.Instance
	State      *state.State
	Supervisor *supervisor.Supervisor
	History    database.HistoryDBI
	Dirs       helpers.Dirs
	Params     json.RawMessage
	ID         models.RPCID
	IsLocal    bool
}
