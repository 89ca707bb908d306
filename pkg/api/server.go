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

// Package api serves the JSON-RPC 2.0 API over WebSocket and HTTP POST on
// the loopback interface, and pushes service notifications to every
// connected WebSocket client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models/requests"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/service/broker"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	// BroadcastBuffer is the broker subscription size of the WebSocket
	// broadcaster.
	BroadcastBuffer = 200
	maxPostBody     = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Server is the API server. The RequestEnv given to NewServer is the base
// environment copied into every method call.
type Server struct {
	env       requests.RequestEnv
	methodMap *MethodMap
	melody    *melody.Melody
	limiter   *middleware.IPRateLimiter
	broker    *broker.Broker
}

func NewServer(env requests.RequestEnv, methodMap *MethodMap, b *broker.Broker) *Server {
	if methodMap == nil {
		methodMap = NewMethodMap()
	}

	m := melody.New()
	m.Config.MaxMessageSize = maxPostBody
	// CORS and the loopback filter guard the upgrade request
	m.Upgrader.CheckOrigin = func(*http.Request) bool { return true }

	s := &Server{
		env:       env,
		methodMap: methodMap,
		melody:    m,
		limiter:   middleware.NewIPRateLimiter(clockwork.NewRealClock()),
		broker:    b,
	}
	m.HandleMessage(middleware.WebSocketRateLimitHandler(s.limiter, s.handleWSMessage))
	return s
}

func sendJSON(session *melody.Session, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("error marshalling response")
		return
	}
	if err := session.Write(data); err != nil {
		log.Error().Err(err).Msg("error sending response")
	}
}

func errorResponse(id models.RPCID, errObj models.ErrorObject) models.ResponseErrorObject {
	log.Debug().Int("code", errObj.Code).Str("message", errObj.Message).Msg("sending error")
	if id.RawMessage == nil {
		id = models.NullRPCID
	}
	return models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &errObj,
	}
}

// processRequest handles one JSON-RPC message and returns the response to
// send. It returns nil for notifications, which get no response.
func processRequest(ctx context.Context, env requests.RequestEnv, methodMap *MethodMap, msg []byte) any {
	if !json.Valid(msg) {
		log.Debug().Msg("data not valid json")
		return errorResponse(models.NullRPCID, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Debug().Err(err).Msg("message is not a request object")
		return errorResponse(models.NullRPCID, JSONRPCErrorInvalidRequest)
	}

	var id models.RPCID
	if !req.ID.IsAbsent() {
		id = *req.ID
	}

	if req.JSONRPC != "2.0" {
		log.Debug().Str("jsonrpc", req.JSONRPC).Msg("unsupported payload version")
		return errorResponse(id, JSONRPCErrorInvalidRequest)
	}
	if req.Method == "" {
		return errorResponse(id, JSONRPCErrorInvalidRequest)
	}
	if req.ID.IsAbsent() {
		log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
		return nil
	}

	fn, ok := methodMap.GetMethod(req.Method)
	if !ok {
		log.Debug().Str("method", req.Method).Msg("unknown method")
		return errorResponse(id, JSONRPCErrorMethodNotFound)
	}

	env.Context = ctx
	env.ID = id
	env.Params = req.Params

	result, err := callMethod(fn, env)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Msg("method returned error")
		errObj := errorObject(err)
		errObj.Data = result
		return errorResponse(id, errObj)
	}

	return models.ResponseObject{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// callMethod runs fn, turning a panic into an internal error so one bad
// request does not take the session down.
func callMethod(fn MethodFunc, env requests.RequestEnv) (result any, err error) { //nolint:gocritic // copied per request
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("method panicked")
			result = nil
			err = fmt.Errorf("%s: %v", JSONRPCErrorInternalError.Message, r)
		}
	}()
	return fn(env)
}

func (s *Server) handleWSMessage(session *melody.Session, msg []byte) {
	// ping command for heartbeat operation
	if bytes.Equal(msg, []byte("ping")) {
		if err := session.Write([]byte("pong")); err != nil {
			log.Error().Err(err).Msg("sending pong")
		}
		return
	}

	env := s.env
	env.IsLocal = middleware.IsLoopbackAddr(session.Request.RemoteAddr)

	resp := processRequest(s.env.State.Context(), env, s.methodMap, msg)
	if resp != nil {
		sendJSON(session, resp)
	}
}

func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPostBody))
	if err != nil {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	env := s.env
	env.IsLocal = middleware.IsLoopbackAddr(r.RemoteAddr)

	resp := processRequest(r.Context(), env, s.methodMap, body)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	// errors are reported in the body, the HTTP status is always OK
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

// broadcastNotifications pushes every notification to all WebSocket
// sessions until ctx is done or the broker stops.
func (s *Server) broadcastNotifications(ctx context.Context) {
	ns, id := s.broker.Subscribe(BroadcastBuffer)
	defer s.broker.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-ns:
			if !ok {
				return
			}
			data, err := json.Marshal(models.RequestObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification request")
				continue
			}
			if err := s.melody.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
				log.Error().Err(err).Msg("broadcasting notification")
			}
		}
	}
}

// Router builds the HTTP handler of the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(middleware.LoopbackOnlyMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: append([]string{"http://localhost:*", "http://127.0.0.1:*"},
			s.env.Config.AllowedOrigins()...),
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))
		r.Post(client.APIPath, s.handlePostRequest)
	})

	r.Get(client.APIPath, func(w http.ResponseWriter, r *http.Request) {
		if err := s.melody.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	return r
}

// Listen binds the API address. Binding before serving means clients can
// connect as soon as Listen returns.
func Listen(cfg *config.Instance) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", cfg.APIListen())
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.APIListen(), err)
	}
	return ln, nil
}

// Serve runs the API on ln until ctx is done, then closes every WebSocket
// session and shuts the HTTP server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.limiter.StartCleanup(ctx)
	if s.broker != nil {
		wg.Go(func() {
			s.broadcastNotifications(ctx)
		})
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("stopping api server")
	if err := s.melody.Close(); err != nil && !errors.Is(err, melody.ErrClosed) {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	<-errCh
	return nil
}
