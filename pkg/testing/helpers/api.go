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

// Package helpers provides testing utilities shared across packages: a
// WebSocket test server for API clients, test configs and in-memory
// filesystems.
package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/require"
)

// WebSocketTestServer serves a melody handler on the API path.
type WebSocketTestServer struct {
	Server *httptest.Server
	Melody *melody.Melody
}

// JSONRPCRequest represents a JSON-RPC request for testing
type JSONRPCRequest struct {
	Params  any    `json:"params,omitempty"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      string `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response for testing
type JSONRPCResponse struct {
	Error   *models.ErrorObject `json:"error,omitempty"`
	JSONRPC string              `json:"jsonrpc"`
	ID      string              `json:"id"`
	Result  json.RawMessage     `json:"result,omitempty"`
}

// NewWebSocketTestServer creates a new WebSocket test server. A nil handler
// accepts connections and ignores messages.
func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()

	m := melody.New()
	if handler != nil {
		m.HandleMessage(handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v0.1", func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleRequest(w, r); err != nil {
			t.Logf("websocket request error: %v", err)
		}
	})

	return &WebSocketTestServer{
		Server: httptest.NewServer(mux),
		Melody: m,
	}
}

// Close shuts down the test server
func (wsts *WebSocketTestServer) Close() {
	_ = wsts.Melody.Close()
	wsts.Server.Close()
}

// Port returns the port the test server listens on.
func (wsts *WebSocketTestServer) Port(t *testing.T) int {
	t.Helper()
	return ServerPort(t, wsts.Server)
}

// ServerPort extracts the port from an httptest.Server URL.
func ServerPort(t *testing.T, server *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

// Respond replies to a raw JSON-RPC request with result.
func Respond(session *melody.Session, msg []byte, result any) {
	var request map[string]any
	if err := json.Unmarshal(msg, &request); err != nil {
		return
	}
	b, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"result":  result,
		"id":      request["id"],
	})
	if err != nil {
		return
	}
	_ = session.Write(b)
}

// DialWebSocket connects to a WebSocket API at server.
func DialWebSocket(server *httptest.Server) (*websocket.Conn, error) {
	u, err := url.Parse(server.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL: %w", err)
	}

	u.Scheme = "ws"
	u.Path = "/api/v0.1"

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial WebSocket: %w", err)
	}

	return conn, nil
}

// SendJSONRPCRequest sends a JSON-RPC request and returns the first response
// carrying its ID, skipping notifications.
func SendJSONRPCRequest(conn *websocket.Conn, method string, params any) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	}

	if err := conn.WriteJSON(request); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		var response JSONRPCResponse
		if err := json.Unmarshal(data, &response); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if response.ID == request.ID {
			return &response, nil
		}
	}
}

// ReadNotification reads messages until a notification with method arrives.
func ReadNotification(conn *websocket.Conn, method string, timeout time.Duration) (*models.RequestObject, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read notification: %w", err)
		}

		var n models.RequestObject
		if err := json.Unmarshal(data, &n); err != nil {
			continue
		}
		if n.ID.IsAbsent() && n.Method == method {
			return &n, nil
		}
	}
}

// AssertJSONRPCSuccess verifies a JSON-RPC response was successful
func AssertJSONRPCSuccess(t *testing.T, response *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.Nil(t, response.Error, "response should not contain an error")
}

// AssertJSONRPCError verifies a JSON-RPC response contains an error
func AssertJSONRPCError(t *testing.T, response *JSONRPCResponse, expectedCode int) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.NotNil(t, response.Error, "response should contain an error")
	require.Equal(t, expectedCode, response.Error.Code, "error code should match")
}
