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
	"bytes"
	"encoding/json"
	"errors"
)

// RPCID is a JSON-RPC 2.0 request ID. It may be a string, a number or null,
// and is echoed back to the client byte for byte.
type RPCID struct {
	json.RawMessage
}

// ErrInvalidRPCID is returned when an ID is an object or array.
var ErrInvalidRPCID = errors.New("JSON-RPC ID cannot be an object or array")

func (id *RPCID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return ErrInvalidRPCID
	}
	id.RawMessage = make([]byte, len(trimmed))
	copy(id.RawMessage, trimmed)
	return nil
}

func (id RPCID) MarshalJSON() ([]byte, error) {
	if len(id.RawMessage) == 0 {
		return []byte("null"), nil
	}
	return id.RawMessage, nil
}

// IsAbsent returns true if the request carried no ID, which makes it a
// notification that must not be answered.
func (id *RPCID) IsAbsent() bool {
	return id == nil || len(id.RawMessage) == 0
}

// Equal compares two IDs by their JSON encoding.
func (id *RPCID) Equal(other RPCID) bool {
	if id == nil {
		return len(other.RawMessage) == 0
	}
	return bytes.Equal(id.RawMessage, other.RawMessage)
}

func (id *RPCID) String() string {
	if id == nil || len(id.RawMessage) == 0 {
		return "null"
	}
	return string(id.RawMessage)
}

// NullRPCID is sent when the request ID could not be read.
var NullRPCID = RPCID{RawMessage: []byte("null")}

// NewStringID creates an RPCID from a string value.
func NewStringID(s string) RPCID {
	b, _ := json.Marshal(s)
	return RPCID{RawMessage: b}
}
