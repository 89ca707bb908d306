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

package models

import (
	"encoding/json"
)

const (
	NotificationGamesAdded      = "games.added"
	NotificationGamesRemoved    = "games.removed"
	NotificationGamesCover      = "games.cover"
	NotificationLaunchStarted   = "launch.started"
	NotificationLaunchFailed    = "launch.failed"
	NotificationPlaytimeUpdated = "playtime.updated"
	NotificationCatalogWarning  = "catalog.warning"
)

const (
	MethodGames        = "games"
	MethodGamesAdd     = "games.add"
	MethodGamesRemove  = "games.remove"
	MethodGamesSearch  = "games.search"
	MethodGamesCover   = "games.cover"
	MethodGamesLaunch  = "games.launch"
	MethodGamesRunning = "games.running"
	MethodGamesScan    = "games.scan"
	MethodHistory      = "history"
	MethodSettings     = "settings"
	MethodVersion      = "version"
)

// Reasons reported in launch.failed notifications.
const (
	LaunchFailedNotFound          = "not_found"
	LaunchFailedExecutableMissing = "executable_missing"
	LaunchFailedAlreadyRunning    = "already_running"
	LaunchFailedSpawn             = "spawn_failed"
)

// Kinds reported in catalog.warning notifications.
const (
	CatalogWarningCorrupt = "corrupt"
	CatalogWarningIO      = "io"
)

// Notification is an event pushed from the service to every connected
// client. Params is the already encoded payload.
type Notification struct {
	Method string
	Params json.RawMessage
}

type RequestObject struct {
	ID      *RPCID          `json:"id,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ErrorObject is a JSON-RPC error. Data holds what a method had already
// applied when it failed part way, such as the games a scan added before a
// save error.
type ErrorObject struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject exists for sending errors, so we can omit result from
// the response, but so nil responses are still returned when using the main
// ResponseObject.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}
