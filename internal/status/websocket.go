// SPDX-License-Identifier: AGPL-3.0-or-later
// btaudiod - a userspace Bluetooth audio and MIDI bridge daemon
// Copyright (C) 2026 btaudiod contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package status

import (
	"log/slog"
	"net/http"

	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsBufferSize = 1024

var knownTopics = map[string]bool{
	eventbus.TopicWorkerStarted:   true,
	eventbus.TopicWorkerStopped:   true,
	eventbus.TopicWorkerError:     true,
	eventbus.TopicSLCStateChanged: true,
	eventbus.TopicPropertyChanged: true,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	// The status API has no notion of browser origins to restrict to: it is
	// a local operational side-channel, off by default, never exposed the
	// way the daemon's other HTTP surfaces are.
	CheckOrigin: func(*http.Request) bool { return true },
}

// getEventsWebsocket streams every payload published on one eventbus topic
// (?topic=, default property.changed) to the connecting client as-is,
// until the client disconnects or the subscription closes.
func (h *handler) getEventsWebsocket(c *gin.Context) {
	topic := c.DefaultQuery("topic", eventbus.TopicPropertyChanged)
	if !knownTopics[topic] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown topic"})
		return
	}

	sub, err := h.bus.Subscribe(c.Request.Context(), topic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() {
		if err := sub.Close(); err != nil {
			slog.Error("status: failed to close event subscription", "error", err)
		}
	}()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("status: failed to upgrade websocket", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("status: failed to close websocket", "error", err)
		}
	}()

	// A read goroutine exists solely to notice the client going away:
	// gorilla's Conn has no other way to detect a closed TCP connection
	// while this handler is only ever writing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case payload, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
