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

package api

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/methods"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/helpers/syncutil"
)

var ErrMethodExists = errors.New("method already registered")

// MethodFunc handles a single JSON-RPC method.
type MethodFunc func(requests.RequestEnv) (any, error)

// MethodMap is the registry of JSON-RPC methods. Method names are case
// insensitive.
type MethodMap struct {
	methods map[string]MethodFunc
	mu      syncutil.RWMutex
}

// NewMethodMap returns a registry with every built-in method.
func NewMethodMap() *MethodMap {
	return &MethodMap{
		methods: map[string]MethodFunc{
			// games
			models.MethodGames:        methods.HandleGames,
			models.MethodGamesAdd:     methods.HandleGamesAdd,
			models.MethodGamesRemove:  methods.HandleGamesRemove,
			models.MethodGamesSearch:  methods.HandleGamesSearch,
			models.MethodGamesCover:   methods.HandleGamesCover,
			models.MethodGamesScan:    methods.HandleGamesScan,
			models.MethodGamesLaunch:  methods.HandleGamesLaunch,
			models.MethodGamesRunning: methods.HandleGamesRunning,
			// history
			models.MethodHistory: methods.HandleHistory,
			// settings
			models.MethodSettings: methods.HandleSettings,
			// utils
			models.MethodVersion: methods.HandleVersion,
		},
	}
}

func (m *MethodMap) AddMethod(name string, fn MethodFunc) error {
	name = strings.ToLower(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.methods[name]; ok {
		return fmt.Errorf("%w: %s", ErrMethodExists, name)
	}
	m.methods[name] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (MethodFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

// ListMethods returns every registered method name, sorted.
func (m *MethodMap) ListMethods() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.methods))
	for name := range m.methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
