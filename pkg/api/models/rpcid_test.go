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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRPCID_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	id := uuid.New().String()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "string", input: `"my-string-id"`, expected: `"my-string-id"`},
		{name: "number", input: `12345`, expected: `12345`},
		{name: "null", input: `null`, expected: `null`},
		{name: "uuid", input: `"` + id + `"`, expected: `"` + id + `"`},
		{name: "surrounding space", input: ` 7 `, expected: `7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got RPCID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestRPCID_UnmarshalJSON_RejectsStructured(t *testing.T) {
	t.Parallel()

	for _, input := range []string{`{"a":1}`, `[1,2]`} {
		var id RPCID
		err := id.UnmarshalJSON([]byte(input))
		require.ErrorIs(t, err, ErrInvalidRPCID)
	}
}

func TestRPCID_MarshalJSON_Empty(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(RPCID{})
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(b))
}

func TestRPCID_IsAbsent(t *testing.T) {
	t.Parallel()

	var nilID *RPCID
	assert.True(t, nilID.IsAbsent())
	assert.True(t, (&RPCID{}).IsAbsent())
	assert.False(t, (&NullRPCID).IsAbsent())

	var req RequestObject
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"games"}`), &req))
	assert.True(t, req.ID.IsAbsent())

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"method":"games"}`), &req))
	assert.False(t, req.ID.IsAbsent())
}

func TestRPCID_Equal(t *testing.T) {
	t.Parallel()

	a := NewStringID("abc")
	assert.True(t, a.Equal(NewStringID("abc")))
	assert.False(t, a.Equal(NewStringID("abd")))

	var nilID *RPCID
	assert.True(t, nilID.Equal(RPCID{}))
	assert.False(t, nilID.Equal(a))
}

func TestResponseObject_EchoesID(t *testing.T) {
	t.Parallel()

	var req RequestObject
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":"x-1","method":"version"}`), &req))
	require.NotNil(t, req.ID)

	b, err := json.Marshal(ResponseObject{JSONRPC: "2.0", ID: *req.ID, Result: nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"x-1","result":null}`, string(b))
}
