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

// Package kv is the key-value abstraction internal/store and internal/
// eventbus build on: an in-memory implementation for single-process
// deployments, and a Redis-backed one for deployments that share state
// across processes.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/btaudio/btaudiod/internal/config"
)

// KV is a minimal key-value store with TTL expiry and list operations,
// enough to back persisted device state and a pub/sub fan-out buffer.
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	// RPush appends a value to a list stored under key. Returns the new length.
	RPush(ctx context.Context, key string, value []byte) (int64, error)
	// LDrain atomically returns all elements of the list and deletes the key.
	LDrain(ctx context.Context, key string) ([][]byte, error)
	Close() error
}

// MakeKV creates an in-memory KV client when redis is the zero value, or a
// Redis-backed one otherwise. Both internal/store and internal/eventbus call
// this with their own independent Redis section, since either can be
// memory-backed while the other is Redis-backed.
func MakeKV(ctx context.Context, redis config.Redis) (KV, error) {
	if redis.Host == "" {
		return newMemoryKV(), nil
	}
	client, err := newRedisKV(ctx, redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis kv: %w", err)
	}
	return client, nil
}
