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

// Package btaudiod wires the daemon's collaborators together: config,
// logging, tracing, persisted state, the event bus, the transport arena,
// a control surface, and the status/metrics/pprof servers, then blocks
// until a shutdown signal arrives.
package btaudiod

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/control"
	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/history"
	"github.com/btaudio/btaudiod/internal/logging"
	"github.com/btaudio/btaudiod/internal/metrics"
	"github.com/btaudio/btaudiod/internal/pprof"
	"github.com/btaudio/btaudiod/internal/retry"
	"github.com/btaudio/btaudiod/internal/status"
	"github.com/btaudio/btaudiod/internal/store"
	"github.com/btaudio/btaudiod/internal/tracing"
	"github.com/USA-RedDragon/configulator"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

const storeFlushInterval = 30 * time.Second

// NewCommand builds the root cobra command. version and commit are baked
// in by the caller from internal/sdk.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "btaudiod",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("btaudiod - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := configulator.New[config.Config]().Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logging.Setup(cfg)

	cleanup, err := tracing.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup tracing: %w", err)
	}
	defer func() {
		if err := cleanup(ctx); err != nil {
			slog.Error("failed to shut down tracer", "error", err)
		}
	}()

	startBackgroundServices(cfg)

	busRedis := cfg.EventBus.Redis
	if cfg.EventBus.Backend != config.EventBusBackendRedis {
		busRedis = config.Redis{}
	}
	bus, err := eventbus.MakeEventBus(ctx, busRedis)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			slog.Error("failed to close event bus", "error", err)
		}
	}()

	hist, err := history.MakeHistory(cfg.History, cfg.Metrics.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if err := hist.Close(); err != nil {
			slog.Error("failed to close history", "error", err)
		}
	}()

	deviceStore, err := store.MakeStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open device store: %w", err)
	}
	defer func() {
		if err := deviceStore.Flush(ctx); err != nil {
			slog.Error("failed to flush device store on shutdown", "error", err)
		}
		if err := deviceStore.Close(); err != nil {
			slog.Error("failed to close device store", "error", err)
		}
	}()

	flusher, err := retry.NewPeriodicScheduler()
	if err != nil {
		return fmt.Errorf("failed to create flush scheduler: %w", err)
	}
	if err := flusher.Every(storeFlushInterval, func(flushCtx context.Context) {
		if err := deviceStore.Flush(flushCtx); err != nil {
			slog.Error("failed to flush device store", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule device store flush: %w", err)
	}
	flusher.Start()
	defer func() {
		if err := flusher.Stop(); err != nil {
			slog.Error("failed to stop flush scheduler", "error", err)
		}
	}()

	hub := transport.NewHub()

	if cfg.Loopback {
		if err := runLoopbackDemo(ctx, hub); err != nil {
			slog.Error("failed to bring up loopback demo transport", "error", err)
		}
	} else {
		slog.Warn("no control-surface integration is wired; hub will stay empty until one is")
	}

	statusErrCh := make(chan error, 1)
	go func() {
		statusErrCh <- status.CreateStatusServer(cfg, hub, hist, bus)
	}()

	if cfg.Status.Enabled && cfg.Status.OpenBrowser {
		openStatusInBrowser(cfg)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slog.Error("shutting down due to signal", "signal", sig)
	case err := <-statusErrCh:
		if err != nil {
			slog.Error("status server exited unexpectedly", "error", err)
		}
	}

	return nil
}

const loopbackDemoAddress = "00:11:22:33:44:55"

// runLoopbackDemo connects one simulated A2DP sink headset and drives it
// through pending to active, so --loopback starts with something for the
// status API to show instead of an empty hub.
func runLoopbackDemo(ctx context.Context, hub *transport.Hub) error {
	surface := control.NewLoopbackControlSurface(hub)

	th, path, err := surface.ConnectDevice(loopbackDemoAddress, transport.ProfileA2DPSink)
	if err != nil {
		return fmt.Errorf("connect loopback device: %w", err)
	}
	if err := hub.Pend(th); err != nil {
		return fmt.Errorf("pend loopback transport: %w", err)
	}
	if err := hub.Acquire(ctx, th, func(acquireCtx context.Context) (int, int, int, error) {
		return surface.Acquire(acquireCtx, path)
	}); err != nil {
		return fmt.Errorf("acquire loopback transport: %w", err)
	}

	slog.Info("loopback transport active", "transport_id", th.String(), "address", loopbackDemoAddress)
	return nil
}

// openStatusInBrowser launches the host's default browser at the status
// API once it has had a moment to start listening. Failures are logged,
// not fatal: the daemon runs fine headless.
func openStatusInBrowser(cfg *config.Config) {
	url := fmt.Sprintf("http://%s:%d/healthz", cfg.Status.Bind, cfg.Status.Port)
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := browser.OpenURL(url); err != nil {
			slog.Error("failed to open browser, open the status API manually", "url", url, "error", err)
		}
	}()
}

// startBackgroundServices starts the metrics and pprof servers, each a
// no-op if disabled in cfg.
func startBackgroundServices(cfg *config.Config) {
	go func() {
		if err := metrics.CreateMetricsServer(cfg); err != nil {
			slog.Error("failed to start metrics server", "error", err)
		}
	}()
	go func() {
		if err := pprof.CreatePProfServer(cfg); err != nil {
			slog.Error("failed to start pprof server", "error", err)
		}
	}()
}
