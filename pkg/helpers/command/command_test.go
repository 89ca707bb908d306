//go:build !windows

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

package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSpawner_Start(t *testing.T) {
	t.Parallel()

	spawner := &RealSpawner{}

	t.Run("reports_zero_exit", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Start(StartOptions{}, "true")
		require.NoError(t, err)
		assert.Positive(t, proc.Pid())

		code, err := proc.Wait()
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})

	t.Run("non_zero_exit_is_not_an_error", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Start(StartOptions{Detach: true}, "sh", "-c", "exit 3")
		require.NoError(t, err)

		code, err := proc.Wait()
		require.NoError(t, err)
		assert.Equal(t, 3, code)
	})

	t.Run("runs_in_working_dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), nil, 0o600))

		proc, err := spawner.Start(StartOptions{Dir: dir}, "sh", "-c", "test -f marker")
		require.NoError(t, err)

		code, err := proc.Wait()
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})

	t.Run("returns_error_for_nonexistent_command", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Start(StartOptions{}, "nonexistent_command_that_should_not_exist_12345")
		require.Error(t, err)
		assert.Nil(t, proc)
	})
}

func TestSpawner_Interface(t *testing.T) {
	t.Parallel()

	var _ Spawner = (*RealSpawner)(nil)
}
