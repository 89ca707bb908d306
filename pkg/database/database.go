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

package database

import (
	"time"
)

// Session is one finished play session of a cataloged game.
type Session struct {
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	ID        string    `json:"sessionId"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	DBID      int64     `db:"DBID" json:"id"`
	Seconds   float64   `json:"seconds"`
	ExitCode  int       `json:"exitCode"`
}

// SessionQuery pages through the session log newest first. A zero LastID
// starts from the newest session, an empty Path matches every game.
type SessionQuery struct {
	Path   string
	LastID int64
	Limit  int
}

const (
	DefaultSessionLimit = 25
	MaxSessionLimit     = 100
)

// HistoryDBI is the play history log. Implemented by historydb.
type HistoryDBI interface {
	AddSession(s *Session) error
	GetSessions(q SessionQuery) ([]Session, error)
	CleanupSessions(retentionDays int) (int64, error)
	Close() error
}
