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

// Package store is the concrete, pluggable form of the daemon's "Persisted
// state" external interface: per-device volume, mute, soft-volume and
// per-codec client-delay adjustments, loaded when a device's first
// transport is created and saved when its last transport releases.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/kv"
)

const keyPrefix = "store:device:"

// DeviceState is the per-device persisted record: Volume and Mute are
// channel-indexed (index 0..len-1 mirrors the PCM's channel map),
// SoftVolume mirrors the PCM flag of the same name, and ClientDelays maps
// codec name to a client-delay adjustment in decimilliseconds. A missing
// codec entry means zero adjustment; Put never writes a zero-valued entry.
type DeviceState struct {
	Volume       []uint8        `json:"volume,omitempty"`
	Mute         []bool         `json:"mute,omitempty"`
	SoftVolume   bool           `json:"soft_volume,omitempty"`
	ClientDelays map[string]int `json:"client_delays,omitempty"`
}

// normalize strips zero-valued ClientDelays entries before persisting, per
// the "zero-valued entries are not written" rule.
func (s DeviceState) normalize() DeviceState {
	if len(s.ClientDelays) == 0 {
		s.ClientDelays = nil
		return s
	}
	delays := make(map[string]int, len(s.ClientDelays))
	for codec, dms := range s.ClientDelays {
		if dms != 0 {
			delays[codec] = dms
		}
	}
	if len(delays) == 0 {
		delays = nil
	}
	s.ClientDelays = delays
	return s
}

// Store persists DeviceState keyed by Bluetooth device address.
type Store interface {
	// Get returns the persisted state for addr, or the zero DeviceState if
	// nothing has ever been saved for it.
	Get(ctx context.Context, addr string) (DeviceState, error)
	// Put persists state for addr, replacing any prior record.
	Put(ctx context.Context, addr string, state DeviceState) error
	// Flush forces any buffered writes out to the backing store. For this
	// store's write-through implementation it is a no-op kept on the
	// interface so a future write-behind backend can implement it
	// meaningfully without changing callers.
	Flush(ctx context.Context) error
	Close() error
}

type kvStore struct {
	mu sync.Mutex
	kv kv.KV
}

// MakeStore builds a Store backed by internal/kv: Redis when cfg.Backend is
// redis, the in-memory backend otherwise.
func MakeStore(ctx context.Context, cfg config.Store) (Store, error) {
	redis := cfg.Redis
	if cfg.Backend != config.StoreBackendRedis {
		redis = config.Redis{}
	}
	backend, err := kv.MakeKV(ctx, redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create store backend: %w", err)
	}
	return &kvStore{kv: backend}, nil
}

func (s *kvStore) Get(ctx context.Context, addr string) (DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, keyPrefix+addr)
	if err != nil {
		// No record yet is not an error condition for callers: a freshly
		// seen device simply has zero adjustments.
		return DeviceState{}, nil
	}
	var state DeviceState
	if err := json.Unmarshal(raw, &state); err != nil {
		return DeviceState{}, fmt.Errorf("failed to decode device state for %s: %w", addr, err)
	}
	return state, nil
}

func (s *kvStore) Put(ctx context.Context, addr string, state DeviceState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(state.normalize())
	if err != nil {
		return fmt.Errorf("failed to encode device state for %s: %w", addr, err)
	}
	if err := s.kv.Set(ctx, keyPrefix+addr, raw); err != nil {
		return fmt.Errorf("failed to persist device state for %s: %w", addr, err)
	}
	return nil
}

func (s *kvStore) Flush(_ context.Context) error {
	return nil
}

func (s *kvStore) Close() error {
	return s.kv.Close()
}
