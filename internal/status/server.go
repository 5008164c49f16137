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
	"fmt"
	"net/http"
	"time"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/history"
)

const readTimeout = 3 * time.Second

// CreateStatusServer blocks serving the diagnostics API until the server
// exits or fails to start. It is a no-op returning nil when the status API
// is disabled, so callers can always run it in its own goroutine alongside
// the metrics and pprof servers.
func CreateStatusServer(cfg *config.Config, hub *transport.Hub, hist history.History, bus eventbus.EventBus) error {
	if !cfg.Status.Enabled {
		return nil
	}
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Status.Bind, cfg.Status.Port),
		Handler:           NewRouter(cfg, hub, hist, bus),
		ReadHeaderTimeout: readTimeout,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("status server failed on %s: %w", server.Addr, err)
	}
	return nil
}
