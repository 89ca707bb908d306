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

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const APIPath = "/api/v0.1"

// RPCError is a JSON-RPC error returned by the service. Data is the raw
// partial result some methods send along with the error, if any.
type RPCError struct {
	Data    json.RawMessage
	Message string
	Code    int
}

type responseError struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message"`
	Code    int             `json:"code"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// response is the client view of a JSON-RPC message: a response when ID is
// set, otherwise a notification.
type response struct {
	ID      *models.RPCID   `json:"id"`
	Error   *responseError  `json:"error"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Params  json.RawMessage `json:"params"`
}

// NotificationMatcher decides if a notification is the one being waited
// for. result is the method result of the request sent on the same
// connection.
type NotificationMatcher func(result string, n models.Notification) bool

func apiURL(cfg *config.Instance) string {
	u := url.URL{
		Scheme: "ws",
		Host:   cfg.APIListen(),
		Path:   APIPath,
	}
	return u.String()
}

func dial(ctx context.Context, cfg *config.Instance) (*websocket.Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, apiURL(cfg), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial api: %w", err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}

func newRequest(method, params string) (models.RequestObject, error) {
	id := models.NewStringID(uuid.New().String())
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
	}

	switch {
	case params == "":
		req.Params = nil
	case json.Valid([]byte(params)):
		req.Params = []byte(params)
	default:
		return req, ErrInvalidParams
	}
	return req, nil
}

func timeoutChan(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout == 0 {
		timeout = config.APIRequestTimeout
	}
	if timeout < 0 {
		// nil channel never receives
		return nil, func() {}
	}
	timer := time.NewTimer(timeout)
	return timer.C, func() { timer.Stop() }
}

// readMessages reads JSON-RPC messages from c until it fails, calling fn for
// each valid one. fn returns true to stop reading.
func readMessages(c *websocket.Conn, fn func(m *response) bool) {
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("error reading message")
			return
		}

		var m response
		if err := json.Unmarshal(message, &m); err != nil {
			continue
		}
		if m.JSONRPC != "2.0" {
			log.Error().Msg("invalid jsonrpc version")
			continue
		}
		if fn(&m) {
			return
		}
	}
}

func waitDone(ctx context.Context, c *websocket.Conn, done <-chan struct{}, timeout time.Duration) error {
	timer, stop := timeoutChan(timeout)
	defer stop()

	select {
	case <-done:
		return nil
	case <-timer:
		closeConn(c)
		<-done
		return ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		<-done
		return ErrRequestCancelled
	}
}

func resultOf(m *response) (string, error) {
	if m.Error != nil {
		return "", &RPCError{Code: m.Error.Code, Message: m.Error.Message, Data: m.Error.Data}
	}
	if len(m.Result) == 0 {
		return "null", nil
	}
	return string(m.Result), nil
}

// LocalClient sends a single method with params to the local running API
// service, waits for a response until timeout then disconnects.
func LocalClient(
	ctx context.Context,
	cfg *config.Instance,
	method string,
	params string,
) (string, error) {
	req, err := newRequest(method, params)
	if err != nil {
		return "", err
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *response

	go func() {
		defer close(done)
		readMessages(c, func(m *response) bool {
			if m.ID == nil || !req.ID.Equal(*m.ID) {
				return false
			}
			resp = m
			return true
		})
	}()

	if err := c.WriteJSON(req); err != nil {
		closeConn(c)
		<-done
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	if err := waitDone(ctx, c, done, config.APIRequestTimeout); err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrRequestTimeout
	}

	return resultOf(resp)
}

// WaitNotification blocks until a notification with the given method is
// received, returning its params. A zero timeout uses the default request
// timeout and a negative one waits forever.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *response

	go func() {
		defer close(done)
		readMessages(c, func(m *response) bool {
			if m.ID != nil || m.Method != method {
				return false
			}
			resp = m
			return true
		})
	}()

	if err := waitDone(ctx, c, done, timeout); err != nil {
		return "", err
	}
	if resp == nil {
		return "", ErrRequestTimeout
	}

	return string(resp.Params), nil
}

// CallAndWait sends a method and then waits on the same connection for the
// first notification accepted by match. Notifications that arrive before the
// response are kept and checked once the result is known, so none are lost
// to ordering between the two.
func CallAndWait(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
	params string,
	match NotificationMatcher,
) (string, models.Notification, error) {
	req, err := newRequest(method, params)
	if err != nil {
		return "", models.Notification{}, err
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", models.Notification{}, err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var (
		result  string
		callErr error
		found   *models.Notification
		got     bool
		pending []models.Notification
	)

	go func() {
		defer close(done)
		readMessages(c, func(m *response) bool {
			if m.ID != nil {
				if !req.ID.Equal(*m.ID) {
					return false
				}
				got = true
				result, callErr = resultOf(m)
				if callErr != nil {
					return true
				}
				for i := range pending {
					if match(result, pending[i]) {
						found = &pending[i]
						return true
					}
				}
				pending = nil
				return false
			}

			n := models.Notification{Method: m.Method, Params: m.Params}
			if !got {
				pending = append(pending, n)
				return false
			}
			if match(result, n) {
				found = &n
				return true
			}
			return false
		})
	}()

	if err := c.WriteJSON(req); err != nil {
		closeConn(c)
		<-done
		return "", models.Notification{}, fmt.Errorf("failed to send request: %w", err)
	}

	if err := waitDone(ctx, c, done, timeout); err != nil {
		return result, models.Notification{}, err
	}
	if callErr != nil {
		return "", models.Notification{}, callErr
	}
	if found == nil {
		return result, models.Notification{}, ErrRequestTimeout
	}

	return result, *found, nil
}

// IsServiceRunning returns true if a service answers on the configured API
// port.
func IsServiceRunning(cfg *config.Instance) bool {
	_, err := LocalClient(context.Background(), cfg, models.MethodVersion, "")
	if err != nil {
		log.Debug().Err(err).Msg("error checking if service running")
		return false
	}
	return true
}

// WaitForAPI polls the API until it answers or timeout passes.
func WaitForAPI(cfg *config.Instance, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if IsServiceRunning(cfg) {
			return true
		}
		if time.Now().Add(interval).After(deadline) {
			time.Sleep(time.Until(deadline))
			return IsServiceRunning(cfg)
		}
		time.Sleep(interval)
	}
}
