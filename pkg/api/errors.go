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

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/supervisor"
)

var JSONRPCErrorParseError = models.ErrorObject{
	Code:    -32700,
	Message: "Parse error",
}

var JSONRPCErrorInvalidRequest = models.ErrorObject{
	Code:    -32600,
	Message: "Invalid Request",
}

var JSONRPCErrorMethodNotFound = models.ErrorObject{
	Code:    -32601,
	Message: "Method not found",
}

var JSONRPCErrorInternalError = models.ErrorObject{
	Code:    -32603,
	Message: "Internal error",
}

// Error codes returned by methods.
const (
	ErrorCodeInvalidParams     = -32602
	ErrorCodeServerError       = -32000
	ErrorCodeDuplicate         = -32001
	ErrorCodeNotFound          = -32002
	ErrorCodeExecutableMissing = -32003
	ErrorCodeSpawnFailed       = -32004
	ErrorCodeAlreadyRunning    = -32005
	// ErrorCodeStoreIO means the change was applied in memory but could not
	// be saved.
	ErrorCodeStoreIO = -32006
)

// errorObject maps a method error to its JSON-RPC error. The message is the
// error text, which names the offending path.
func errorObject(err error) models.ErrorObject {
	var verr *validation.Error
	code := ErrorCodeServerError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, catalog.ErrInvalidPath):
		code = ErrorCodeInvalidParams
	case errors.Is(err, catalog.ErrDuplicate):
		code = ErrorCodeDuplicate
	case errors.Is(err, catalog.ErrExecutableNotFound):
		code = ErrorCodeExecutableMissing
	case errors.Is(err, catalog.ErrNotFound):
		code = ErrorCodeNotFound
	case errors.Is(err, supervisor.ErrSpawn):
		code = ErrorCodeSpawnFailed
	case errors.Is(err, supervisor.ErrAlreadyRunning):
		code = ErrorCodeAlreadyRunning
	case errors.Is(err, catalogdb.ErrIO):
		code = ErrorCodeStoreIO
	}
	return models.ErrorObject{Code: code, Message: err.Error()}
}
