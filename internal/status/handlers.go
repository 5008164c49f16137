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
	"net/http"
	"strconv"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

func (h *handler) getHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) getAdapters(c *gin.Context) {
	views := make([]AdapterView, 0)
	h.hub.Adapters.Range(func(handle transport.Handle, a transport.Adapter) bool {
		views = append(views, newAdapterView(handle, a))
		return true
	})
	c.JSON(http.StatusOK, views)
}

func (h *handler) getAdapter(c *gin.Context) {
	handle, err := transport.ParseHandle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.hub.Adapters.Get(handle)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newAdapterView(handle, a))
}

func (h *handler) getDevices(c *gin.Context) {
	views := make([]DeviceView, 0)
	h.hub.Devices.Range(func(handle transport.Handle, d transport.Device) bool {
		views = append(views, newDeviceView(handle, d))
		return true
	})
	c.JSON(http.StatusOK, views)
}

func (h *handler) getDevice(c *gin.Context) {
	handle, err := transport.ParseHandle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.hub.Devices.Get(handle)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newDeviceView(handle, d))
}

func (h *handler) getTransports(c *gin.Context) {
	views := make([]TransportView, 0)
	h.hub.Transports.Range(func(handle transport.Handle, t transport.Transport) bool {
		views = append(views, newTransportView(handle, t))
		return true
	})
	c.JSON(http.StatusOK, views)
}

func (h *handler) getTransport(c *gin.Context) {
	handle, err := transport.ParseHandle(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.hub.Transports.Get(handle)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newTransportView(handle, t))
}

func (h *handler) getHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	events, err := h.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *handler) getSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, newSnapshot(h.hub))
}
