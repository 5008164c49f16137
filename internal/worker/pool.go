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

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"golang.org/x/sync/errgroup"

	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/history"
)

// Pool owns the running worker goroutines for every active transport.
// Exactly one goroutine per direction runs while a transport is active,
// matching the "exactly one worker thread per direction" invariant; Pool
// is the piece that actually spawns and joins them.
type Pool struct {
	mu      sync.Mutex
	entries map[uint64]*entry

	bus     eventbus.EventBus
	history history.History
	logger  *slog.Logger
}

type entry struct {
	cancel     context.CancelFunc
	group      *errgroup.Group
	open       []chan<- Signal
	configHash uint64
}

// NewPool constructs a Pool publishing lifecycle events on bus and
// recording connection history. Either may be nil in tests.
func NewPool(bus eventbus.EventBus, hist history.History, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		entries: make(map[uint64]*entry),
		bus:     bus,
		history: hist,
		logger:  logger,
	}
}

// Start spawns one goroutine per Config in configs, all sharing transportID
// and cancellation, and returns once they're running. A transport with one
// active direction gets one Config; HFP/HSP SCO gets two (encode and
// decode running concurrently over the same socket).
func (p *Pool) Start(ctx context.Context, transportID uint64, deviceAddress string, configs []Config, signalChans []chan Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[transportID]; exists {
		return fmt.Errorf("worker pool: transport %d already has running workers", transportID)
	}

	configHash, err := fingerprint(configs)
	if err != nil {
		return fmt.Errorf("worker pool: failed to fingerprint configs: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	open := make([]chan<- Signal, len(signalChans))
	for i := range signalChans {
		open[i] = signalChans[i]
	}

	for i := range configs {
		cfg := configs[i]
		w := New(cfg)
		dir := cfg.Direction
		group.Go(func() error {
			p.publish(groupCtx, eventbus.TopicWorkerStarted, transportID, dir)
			err := w.Run(groupCtx)
			if err != nil {
				p.publish(groupCtx, eventbus.TopicWorkerError, transportID, dir)
				p.logger.Warn("worker stopped with error",
					"transport_id", transportID, "direction", dir, "error", err)
			} else {
				p.publish(groupCtx, eventbus.TopicWorkerStopped, transportID, dir)
			}
			return err
		})
	}

	p.entries[transportID] = &entry{cancel: cancel, group: group, open: open, configHash: configHash}

	if p.history != nil {
		_ = p.history.Record(ctx, history.ConnectionEvent{
			Address: deviceAddress,
			Event:   "worker_started",
		})
	}
	return nil
}

// Signal delivers sig to every worker running for transportID.
func (p *Pool) Signal(transportID uint64, sig Signal) error {
	p.mu.Lock()
	e, ok := p.entries[transportID]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("worker pool: no running workers for transport %d", transportID)
	}
	for _, ch := range e.open {
		select {
		case ch <- sig:
		case <-time.After(pollInterval):
			// a worker that can't accept a signal within one poll
			// interval is wedged; drop the signal rather than block
			// the caller indefinitely.
		}
	}
	return nil
}

// Stop cancels every worker for transportID and waits for them to exit,
// matching destroy(transport)'s "signals workers via pipe, joins" step.
// Stop is idempotent.
func (p *Pool) Stop(transportID uint64) error {
	p.mu.Lock()
	e, ok := p.entries[transportID]
	if ok {
		delete(p.entries, transportID)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}

	e.cancel()
	if err := e.group.Wait(); err != nil {
		return fmt.Errorf("worker pool: transport %d: %w", transportID, err)
	}
	return nil
}

// Running reports whether transportID currently has an active worker set.
func (p *Pool) Running(transportID uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[transportID]
	return ok
}

// ConfigUnchanged reports whether transportID's running workers already
// match configs, so a caller reacting to a codec renegotiation can skip a
// Stop+Start cycle when nothing actually changed. Returns false if
// transportID has no running workers.
func (p *Pool) ConfigUnchanged(transportID uint64, configs []Config) bool {
	p.mu.Lock()
	e, ok := p.entries[transportID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	hash, err := fingerprint(configs)
	if err != nil {
		return false
	}
	return hash == e.configHash
}

// fingerprintedConfig is the subset of Config that determines whether two
// codec negotiations are equivalent. Config itself holds sockets, channels
// and callbacks hashstructure cannot hash, so Start and ConfigUnchanged
// project onto this before hashing.
type fingerprintedConfig struct {
	Direction   Direction
	CodecName   string
	PayloadType uint8
	SSRC        uint32
	ClockRate   uint32
	PCMRate     uint32
	MTU         int
}

func fingerprint(configs []Config) (uint64, error) {
	projected := make([]fingerprintedConfig, len(configs))
	for i, cfg := range configs {
		codecName := ""
		if cfg.Codec != nil {
			codecName = fmt.Sprintf("%T", cfg.Codec)
		}
		projected[i] = fingerprintedConfig{
			Direction:   cfg.Direction,
			CodecName:   codecName,
			PayloadType: cfg.PayloadType,
			SSRC:        cfg.SSRC,
			ClockRate:   cfg.ClockRate,
			PCMRate:     cfg.PCMRate,
			MTU:         cfg.MTU,
		}
	}
	hash, err := hashstructure.Hash(projected, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash config fingerprint: %w", err)
	}
	return hash, nil
}

func (p *Pool) publish(ctx context.Context, topic string, transportID uint64, dir Direction) {
	if p.bus == nil {
		return
	}
	payload, err := json.Marshal(struct {
		TransportID uint64    `json:"transport_id"`
		Direction   Direction `json:"direction"`
	}{TransportID: transportID, Direction: dir})
	if err != nil {
		return
	}
	_ = p.bus.Publish(ctx, topic, payload)
}
