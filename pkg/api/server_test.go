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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/validation"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/catalog"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/database/catalogdb"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/broker"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/state"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/supervisor"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/testing/helpers"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/testing/mocks"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serverEnv struct {
	server  *Server
	broker  *broker.Broker
	fs      *helpers.FSHelper
	spawner *mocks.MockSpawner
	env     requests.RequestEnv
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	fsh := helpers.NewMemoryFS()
	store := catalogdb.NewStore(fsh.Fs, helpers.AbsPath("data", "games.json"))
	st, ns, err := state.NewState(store, fsh.Fs, nil)
	require.NoError(t, err)

	cfg := helpers.NewTestConfigWithPort(t, 0)
	spawner := &mocks.MockSpawner{}
	sup := supervisor.New(st, cfg, spawner, nil)

	env := requests.RequestEnv{
		Config:     cfg,
		State:      st,
		Supervisor: sup,
	}
	b := broker.New(ns)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() {
		_ = b.Run(ctx)
	})
	t.Cleanup(func() {
		sup.Wait()
		cancel()
		wg.Wait()
	})

	return &serverEnv{
		server:  NewServer(env, nil, b),
		broker:  b,
		fs:      fsh,
		spawner: spawner,
		env:     env,
	}
}

// startBroadcast runs the notification broadcaster until the test ends and
// waits for it to subscribe.
func (e *serverEnv) startBroadcast(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() {
		e.server.broadcastNotifications(ctx)
	})
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	require.Eventually(t, func() bool {
		return e.broker.Subscribers() == 1
	}, time.Second, 5*time.Millisecond)
}

func (e *serverEnv) createGame(t *testing.T, name string) string {
	t.Helper()
	path := helpers.AbsPath("games", name)
	require.NoError(t, e.fs.CreateGame(path))
	return path
}

func process(t *testing.T, e *serverEnv, msg string) any {
	t.Helper()
	return processRequest(context.Background(), e.env, e.server.methodMap, []byte(msg))
}

func TestProcessRequest_Errors(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)

	tests := []struct {
		name string
		msg  string
		id   string
		code int
	}{
		{name: "invalid json", msg: `{invalid`, id: "null", code: -32700},
		{name: "structured id", msg: `{"jsonrpc":"2.0","id":{"a":1},"method":"games"}`, id: "null", code: -32600},
		{name: "bad version", msg: `{"jsonrpc":"1.0","id":1,"method":"games"}`, id: "1", code: -32600},
		{name: "missing method", msg: `{"jsonrpc":"2.0","id":2}`, id: "2", code: -32600},
		{name: "unknown method", msg: `{"jsonrpc":"2.0","id":"x","method":"games.nope"}`, id: `"x"`, code: -32601},
		{name: "missing params", msg: `{"jsonrpc":"2.0","id":3,"method":"games.add"}`, id: "3", code: -32602},
		{
			name: "relative path",
			msg:  `{"jsonrpc":"2.0","id":4,"method":"games.add","params":{"path":"foo.exe"}}`,
			id:   "4",
			code: -32602,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := process(t, e, tt.msg)
			errResp, ok := resp.(models.ResponseErrorObject)
			require.True(t, ok, "expected error response, got %T", resp)
			assert.Equal(t, tt.code, errResp.Error.Code)

			data, err := json.Marshal(errResp)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"id":`+tt.id)
		})
	}
}

func TestProcessRequest_NotificationIgnored(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	assert.Nil(t, process(t, e, `{"jsonrpc":"2.0","method":"games"}`))
}

func TestProcessRequest_Success(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	path := e.createGame(t, "foo.exe")

	resp := process(t, e, fmt.Sprintf(`{"jsonrpc":"2.0","id":7,"method":"GAMES.ADD","params":{"path":%q}}`, path))
	ok, isResp := resp.(models.ResponseObject)
	require.True(t, isResp, "expected response, got %T", resp)
	assert.Nil(t, ok.Error)
	game, isGame := ok.Result.(models.GameResponse)
	require.True(t, isGame)
	assert.Equal(t, "foo", game.Name)

	resp = process(t, e, fmt.Sprintf(`{"jsonrpc":"2.0","id":8,"method":"games.add","params":{"path":%q}}`, path))
	errResp, isErr := resp.(models.ResponseErrorObject)
	require.True(t, isErr)
	assert.Equal(t, ErrorCodeDuplicate, errResp.Error.Code)
	assert.Contains(t, errResp.Error.Message, path)
	assert.Nil(t, errResp.Error.Data)
}

func TestProcessRequest_PartialResultSentAsErrorData(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	mm := NewMethodMap()
	partial := models.ScanResponse{Added: []models.GameResponse{{Name: "doom"}}, Skipped: 1}
	require.NoError(t, mm.AddMethod("test.partial", func(requests.RequestEnv) (any, error) {
		return partial, fmt.Errorf("%w: disk full", catalogdb.ErrIO)
	}))

	resp := processRequest(context.Background(), e.env, mm, []byte(`{"jsonrpc":"2.0","id":1,"method":"test.partial"}`))
	errResp, ok := resp.(models.ResponseErrorObject)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeStoreIO, errResp.Error.Code)
	assert.Equal(t, partial, errResp.Error.Data)

	data, err := json.Marshal(errResp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":{"added":[`)
}

func TestProcessRequest_PanicRecovered(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	mm := NewMethodMap()
	require.NoError(t, mm.AddMethod("test.panic", func(requests.RequestEnv) (any, error) {
		panic("boom")
	}))

	resp := processRequest(context.Background(), e.env, mm, []byte(`{"jsonrpc":"2.0","id":1,"method":"test.panic"}`))
	errResp, ok := resp.(models.ResponseErrorObject)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeServerError, errResp.Error.Code)
	assert.Contains(t, errResp.Error.Message, "boom")
}

func TestErrorObject(t *testing.T) {
	t.Parallel()

	path := helpers.AbsPath("games", "foo.exe")
	tests := []struct {
		err  error
		name string
		code int
	}{
		{name: "duplicate", err: fmt.Errorf("%w: %s", catalog.ErrDuplicate, path), code: ErrorCodeDuplicate},
		{name: "not found", err: fmt.Errorf("%w: %s", catalog.ErrNotFound, path), code: ErrorCodeNotFound},
		{
			name: "executable missing",
			err:  fmt.Errorf("%w: %s", catalog.ErrExecutableNotFound, path),
			code: ErrorCodeExecutableMissing,
		},
		{name: "invalid path", err: catalog.ErrInvalidPath, code: ErrorCodeInvalidParams},
		{name: "spawn", err: fmt.Errorf("%w: %s: denied", supervisor.ErrSpawn, path), code: ErrorCodeSpawnFailed},
		{name: "already running", err: supervisor.ErrAlreadyRunning, code: ErrorCodeAlreadyRunning},
		{name: "store io", err: fmt.Errorf("%w: disk full", catalogdb.ErrIO), code: ErrorCodeStoreIO},
		{name: "validation", err: &validation.Error{}, code: ErrorCodeInvalidParams},
		{name: "missing params", err: validation.ErrMissingParams, code: ErrorCodeInvalidParams},
		{name: "other", err: errors.New("something else"), code: ErrorCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			obj := errorObject(tt.err)
			assert.Equal(t, tt.code, obj.Code)
			assert.Equal(t, tt.err.Error(), obj.Message)
		})
	}
}

func TestMethodMap(t *testing.T) {
	t.Parallel()

	mm := NewMethodMap()
	assert.Contains(t, mm.ListMethods(), models.MethodGamesLaunch)

	_, ok := mm.GetMethod("Games.Search")
	assert.True(t, ok)

	err := mm.AddMethod("GAMES", func(requests.RequestEnv) (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrMethodExists)

	require.NoError(t, mm.AddMethod("test.echo", func(requests.RequestEnv) (any, error) { return "ok", nil }))
	_, ok = mm.GetMethod("test.echo")
	assert.True(t, ok)
}

func TestHandlePostRequest(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	router := e.server.Router()
	path := e.createGame(t, "foo.exe")

	body := fmt.Sprintf(`{"jsonrpc":"2.0","id":"abc","method":"games.add","params":{"path":%q}}`, path)
	req := httptest.NewRequest(http.MethodPost, "/api/v0.1", strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:50000"
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp helpers.JSONRPCResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	helpers.AssertJSONRPCSuccess(t, &resp)
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, 1, e.env.State.GameCount())

	// JSON-RPC errors are still HTTP 200
	req = httptest.NewRequest(http.MethodPost, "/api/v0.1", strings.NewReader(`{invalid`))
	req.RemoteAddr = "127.0.0.1:50000"
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	helpers.AssertJSONRPCError(t, &resp, -32700)
}

func TestHandlePostRequest_RejectsRemote(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v0.1",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"games"}`))
	req.RemoteAddr = "192.168.1.20:50000"
	rr := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestWebSocket_LaunchFlow(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	e.startBroadcast(t)

	srv := httptest.NewServer(e.server.Router())
	t.Cleanup(func() {
		_ = e.server.melody.Close()
		srv.Close()
	})

	conn, err := helpers.DialWebSocket(srv)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	path := e.createGame(t, "foo.exe")
	resp, err := helpers.SendJSONRPCRequest(conn, models.MethodGamesAdd, models.PathParams{Path: path})
	require.NoError(t, err)
	helpers.AssertJSONRPCSuccess(t, resp)
	var game models.GameResponse
	require.NoError(t, json.Unmarshal(resp.Result, &game))
	assert.Equal(t, path, game.Path)

	proc := mocks.NewFakeProcess(555)
	e.spawner.On("Start", mock.Anything, path, mock.Anything).Return(proc, nil)

	resp, err = helpers.SendJSONRPCRequest(conn, models.MethodGamesLaunch, models.PathParams{Path: path})
	require.NoError(t, err)
	helpers.AssertJSONRPCSuccess(t, resp)
	var launch models.LaunchResponse
	require.NoError(t, json.Unmarshal(resp.Result, &launch))
	assert.Equal(t, 555, launch.Pid)

	resp, err = helpers.SendJSONRPCRequest(conn, models.MethodGamesLaunch, models.PathParams{Path: path})
	require.NoError(t, err)
	helpers.AssertJSONRPCError(t, resp, ErrorCodeAlreadyRunning)

	proc.Exit(0)

	updated, err := helpers.ReadNotification(conn, models.NotificationPlaytimeUpdated, 2*time.Second)
	require.NoError(t, err)
	var pp models.PlaytimeUpdatedPayload
	require.NoError(t, json.Unmarshal(updated.Params, &pp))
	assert.Equal(t, path, pp.Path)
	assert.Equal(t, launch.SessionID, pp.SessionID)
	assert.True(t, pp.Credited)
}

func TestWebSocket_Ping(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	srv := httptest.NewServer(e.server.Router())
	t.Cleanup(func() {
		_ = e.server.melody.Close()
		srv.Close()
	})

	conn, err := helpers.DialWebSocket(srv)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}

func TestServe_ListensAndShutsDown(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	ln, err := Listen(e.env.Config)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- e.server.Serve(ctx, ln)
	}()

	// the listener is bound before Serve runs, so this cannot race
	url := "http://" + ln.Addr().String() + "/api/v0.1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"version"}`))
	require.NoError(t, err)
	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = httpResp.Body.Close()
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestWebSocket_BroadcastsNotifications(t *testing.T) {
	t.Parallel()

	e := newServerEnv(t)
	e.startBroadcast(t)

	srv := httptest.NewServer(e.server.Router())
	t.Cleanup(func() {
		_ = e.server.melody.Close()
		srv.Close()
	})

	conn, err := helpers.DialWebSocket(srv)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	// the session is registered once a request round trip completes
	resp, err := helpers.SendJSONRPCRequest(conn, models.MethodVersion, nil)
	require.NoError(t, err)
	helpers.AssertJSONRPCSuccess(t, resp)

	path := e.createGame(t, "bar.exe")
	_, err = e.env.State.AddGame(path, "")
	require.NoError(t, err)

	added, err := helpers.ReadNotification(conn, models.NotificationGamesAdded, 2*time.Second)
	require.NoError(t, err)
	var game models.GameResponse
	require.NoError(t, json.Unmarshal(added.Params, &game))
	assert.Equal(t, path, game.Path)
	assert.Equal(t, "bar", game.Name)
}
