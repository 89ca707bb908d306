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
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
)

type GameResponse struct {
	AddedDate time.Time `json:"addedDate"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Cover     string    `json:"cover"`
	Playtime  float64   `json:"playtime"`
	Running   bool      `json:"running"`
}

// NewGameResponse converts a catalog entry to its API form.
func NewGameResponse(e *catalog.GameEntry, running bool) GameResponse {
	return GameResponse{
		AddedDate: e.AddedDate,
		Name:      e.Name,
		Path:      e.Path,
		Cover:     e.Cover,
		Playtime:  e.Playtime,
		Running:   running,
	}
}

type GamesResponse struct {
	Games []GameResponse `json:"games"`
	Total int            `json:"total"`
}

type RemoveGameResponse struct {
	Removed bool `json:"removed"`
}

type CoverResponse struct {
	Updated bool `json:"updated"`
}

type LaunchResponse struct {
	SessionID string `json:"sessionId"`
	Pid       int    `json:"pid"`
	Accepted  bool   `json:"accepted"`
}

type RunningGameResponse struct {
	Started   time.Time `json:"started"`
	RSSBytes  *uint64   `json:"rssBytes,omitempty"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	SessionID string    `json:"sessionId"`
	Pid       int       `json:"pid"`
	Elapsed   float64   `json:"elapsed"`
}

type RunningResponse struct {
	Running []RunningGameResponse `json:"running"`
}

type ScanResponse struct {
	Added   []GameResponse `json:"added"`
	Skipped int            `json:"skipped"`
}

type SessionResponse struct {
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	SessionID string    `json:"sessionId"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	Seconds   float64   `json:"seconds"`
	ExitCode  int       `json:"exitCode"`
}

type HistoryResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type SettingsResponse struct {
	CatalogFile    string `json:"catalogFile"`
	LogFile        string `json:"logFile"`
	WorkingDir     string `json:"workingDir"`
	GameCount      int    `json:"gameCount"`
	APIPort        int    `json:"apiPort"`
	DebugLogging   bool   `json:"debugLogging"`
	HistoryEnabled bool   `json:"historyEnabled"`
}

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// Notification payloads.

type GameRemovedPayload struct {
	Path string `json:"path"`
}

type LaunchStartedPayload struct {
	Started   time.Time `json:"started"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	SessionID string    `json:"sessionId"`
	Pid       int       `json:"pid"`
}

type LaunchFailedPayload struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type PlaytimeUpdatedPayload struct {
	Path      string  `json:"path"`
	SessionID string  `json:"sessionId"`
	Playtime  float64 `json:"playtime"`
	Session   float64 `json:"session"`
	ExitCode  int     `json:"exitCode"`
	// Credited is false when the game was removed from the catalog while it
	// was running.
	Credited bool `json:"credited"`
}

type CatalogWarningPayload struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}
