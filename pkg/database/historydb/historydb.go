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

// Package historydb keeps a log of finished play sessions in SQLite.
package historydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("HistoryDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type HistoryDB struct {
	sql  *sql.DB
	ctx  context.Context
	path string
}

// Open opens the history database at path, creating and migrating it as
// needed.
func Open(ctx context.Context, path string) (*HistoryDB, error) {
	db := &HistoryDB{ctx: ctx, path: path}
	if err := db.open(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *HistoryDB) open() error {
	if err := os.MkdirAll(filepath.Dir(db.path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for database: %w", err)
	}
	sqlInstance, err := sql.Open("sqlite3", db.path+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	if err := db.MigrateUp(); err != nil {
		_ = sqlInstance.Close()
		db.sql = nil
		return err
	}
	return nil
}

func (db *HistoryDB) Path() string {
	return db.path
}

func (db *HistoryDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *HistoryDB) AddSession(s *database.Session) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddSession(db.ctx, db.sql, s)
}

func (db *HistoryDB) GetSessions(q database.SessionQuery) ([]database.Session, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetSessions(db.ctx, db.sql, q)
}

// CleanupSessions deletes sessions that ended more than retentionDays ago.
// A retention of zero or less keeps everything.
func (db *HistoryDB) CleanupSessions(retentionDays int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	if retentionDays <= 0 {
		return 0, nil
	}
	return sqlCleanupSessions(db.ctx, db.sql, retentionDays)
}

func (db *HistoryDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing purposes.
// The schema is not migrated, callers set up expectations themselves.
func (db *HistoryDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) {
	db.sql = sqlDB
	db.ctx = ctx
}

var _ database.HistoryDBI = (*HistoryDB)(nil)
