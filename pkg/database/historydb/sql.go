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

package historydb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run history database migrations: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `vacuum;`)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func sqlAddSession(ctx context.Context, db *sql.DB, s *database.Session) error {
	stmt, err := db.PrepareContext(ctx, `
		insert into Sessions(
			ID, Path, Name, StartedAt, EndedAt, Seconds, ExitCode
		) values (?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	res, err := stmt.ExecContext(ctx,
		s.ID,
		s.Path,
		s.Name,
		s.StartedAt.Unix(),
		s.EndedAt.Unix(),
		s.Seconds,
		s.ExitCode,
	)
	if err != nil {
		return fmt.Errorf("failed to execute session insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session id: %w", err)
	}
	s.DBID = id
	return nil
}

func sqlGetSessions(
	ctx context.Context,
	db *sql.DB,
	q database.SessionQuery,
) ([]database.Session, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = database.DefaultSessionLimit
	} else if limit > database.MaxSessionLimit {
		limit = database.MaxSessionLimit
	}
	lastID := q.LastID
	if lastID <= 0 {
		lastID = math.MaxInt64
	}

	list := make([]database.Session, 0, limit)

	stmt, err := db.PrepareContext(ctx, `
		select
		DBID, ID, Path, Name, StartedAt, EndedAt, Seconds, ExitCode
		from Sessions
		where DBID < ? and (? = '' or Path = ?)
		order by DBID desc
		limit ?;
	`)
	if err != nil {
		return list, fmt.Errorf("failed to prepare session query statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := stmt.QueryContext(ctx, lastID, q.Path, q.Path, limit)
	if err != nil {
		return list, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	for rows.Next() {
		row := database.Session{}
		var startedAt, endedAt int64
		scanErr := rows.Scan(
			&row.DBID,
			&row.ID,
			&row.Path,
			&row.Name,
			&startedAt,
			&endedAt,
			&row.Seconds,
			&row.ExitCode,
		)
		if scanErr != nil {
			return list, fmt.Errorf("failed to scan session row: %w", scanErr)
		}
		row.StartedAt = time.Unix(startedAt, 0)
		row.EndedAt = time.Unix(endedAt, 0)
		list = append(list, row)
	}
	if err = rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating session rows: %w", err)
	}
	return list, nil
}

func sqlCleanupSessions(ctx context.Context, db *sql.DB, retentionDays int) (int64, error) {
	cutoffTime := time.Now().AddDate(0, 0, -retentionDays).Unix()

	stmt, err := db.PrepareContext(ctx, `delete from Sessions where EndedAt < ?;`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session cleanup statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	result, err := stmt.ExecContext(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to execute session cleanup: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		if err := sqlVacuum(ctx, db); err != nil {
			return rowsAffected, fmt.Errorf("cleanup succeeded but vacuum failed: %w", err)
		}
	}

	return rowsAffected, nil
}
