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

// Package status is the read-only diagnostics HTTP+WebSocket API: it lists
// the transport graph's adapters, devices and transports, replays recent
// connection history, and streams live eventbus traffic. It is not the
// control surface — nothing here can change daemon state — and is off by
// default.
package status

import (
	"net/http"
	"time"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/history"
	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	rateLimitRate  = time.Second
	rateLimitLimit = 20
)

// handler bundles the read-only collaborators every route needs. Its
// methods never mutate hub, hist or bus: that is the entire point of this
// package being a side-channel rather than the control surface.
type handler struct {
	hub  *transport.Hub
	hist history.History
	bus  eventbus.EventBus
}

// NewRouter builds the status API's gin.Engine. It is exported separately
// from the listener so tests can exercise it with httptest without binding
// a real port.
func NewRouter(cfg *config.Config, hub *transport.Hub, hist history.History, bus eventbus.EventBus) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	if cfg.PProf.Enabled {
		pprof.Register(r)
	}
	if cfg.Metrics.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("btaudiod-status"))
	}
	if len(cfg.Status.CORSHosts) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowCredentials = true
		corsConfig.AllowOrigins = cfg.Status.CORSHosts
		r.Use(cors.New(corsConfig))
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rateLimitRate,
		Limit: rateLimitLimit,
	})
	limiter := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.String(http.StatusTooManyRequests, "too many requests, retry after %s", time.Until(info.ResetTime))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
	r.Use(limiter)

	h := &handler{hub: hub, hist: hist, bus: bus}

	r.GET("/healthz", h.getHealthz)

	v1 := r.Group("/api/v1")
	v1.GET("/adapters", h.getAdapters)
	v1.GET("/adapters/:id", h.getAdapter)
	v1.GET("/devices", h.getDevices)
	v1.GET("/devices/:id", h.getDevice)
	v1.GET("/transports", h.getTransports)
	v1.GET("/transports/:id", h.getTransport)
	v1.GET("/history", h.getHistory)
	v1.GET("/snapshot", h.getSnapshot)

	r.GET("/ws/events", h.getEventsWebsocket)

	return r
}
