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
	"context"
	"encoding/json"
	"time"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/client"
	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

// NewMockAPIClient creates a new mock API client.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Call mocks the API call method.
func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

// WaitNotification mocks waiting for a notification.
func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// CallAndWait mocks a call followed by a notification wait. The returned
// notification is only passed back when match accepts it.
func (m *MockAPIClient) CallAndWait(
	ctx context.Context,
	timeout time.Duration,
	method, params string,
	match client.NotificationMatcher,
) (string, models.Notification, error) {
	args := m.Called(ctx, timeout, method, params)
	result := args.String(0)
	n, _ := args.Get(1).(models.Notification)
	err := args.Error(2)
	if err == nil && !match(result, n) {
		return result, models.Notification{}, client.ErrRequestTimeout
	}
	//nolint:wrapcheck // mock returns are passed through
	return result, n, err
}

// SetupCall configures the mock to return result marshalled as JSON.
func (m *MockAPIClient) SetupCall(method string, result any) {
	data, _ := json.Marshal(result)
	m.On("Call", mock.Anything, method, mock.Anything).Return(string(data), nil)
}

// SetupCallError configures the mock to return an error for method.
func (m *MockAPIClient) SetupCallError(method string, err error) {
	m.On("Call", mock.Anything, method, mock.Anything).Return("", err)
}
