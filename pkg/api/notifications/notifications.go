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

package notifications

import (
	"encoding/json"

	"github.com/ZaparooProject/zaparoo-shelf/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// sendNotification marshals the payload and sends it without blocking. A full
// channel drops the notification with a warning so callers, which may hold
// no lock but run on hot paths like process reconciliation, never stall.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	var params json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification params")
			return
		}
		params = b
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func GamesAdded(ns chan<- models.Notification, payload models.GameResponse) {
	sendNotification(ns, models.NotificationGamesAdded, payload)
}

func GamesRemoved(ns chan<- models.Notification, path string) {
	sendNotification(ns, models.NotificationGamesRemoved, models.GameRemovedPayload{Path: path})
}

func GamesCover(ns chan<- models.Notification, payload models.GameResponse) {
	sendNotification(ns, models.NotificationGamesCover, payload)
}

func LaunchStarted(ns chan<- models.Notification, payload models.LaunchStartedPayload) {
	sendNotification(ns, models.NotificationLaunchStarted, payload)
}

func LaunchFailed(ns chan<- models.Notification, payload models.LaunchFailedPayload) {
	sendNotification(ns, models.NotificationLaunchFailed, payload)
}

func PlaytimeUpdated(ns chan<- models.Notification, payload models.PlaytimeUpdatedPayload) {
	sendNotification(ns, models.NotificationPlaytimeUpdated, payload)
}

func CatalogWarning(ns chan<- models.Notification, kind string, err error) {
	sendNotification(ns, models.NotificationCatalogWarning, models.CatalogWarningPayload{
		Kind:  kind,
		Error: err.Error(),
	})
}
