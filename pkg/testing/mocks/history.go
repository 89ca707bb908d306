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

package mocks

import (
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockHistoryDB is a testify mock for database.HistoryDBI.
type MockHistoryDB struct {
	mock.Mock
}

//nolint:wrapcheck // mock returns are passed through
func (m *MockHistoryDB) AddSession(s *database.Session) error {
	args := m.Called(s)
	return args.Error(0)
}

//nolint:wrapcheck // mock returns are passed through
func (m *MockHistoryDB) GetSessions(q database.SessionQuery) ([]database.Session, error) {
	args := m.Called(q)
	sessions, _ := args.Get(0).([]database.Session)
	return sessions, args.Error(1)
}

//nolint:wrapcheck // mock returns are passed through
func (m *MockHistoryDB) CleanupSessions(retentionDays int) (int64, error) {
	args := m.Called(retentionDays)
	return args.Get(0).(int64), args.Error(1) //nolint:forcetypeassert // set by the test
}

//nolint:wrapcheck // mock returns are passed through
func (m *MockHistoryDB) Close() error {
	args := m.Called()
	return args.Error(0)
}
