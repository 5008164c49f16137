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

// Package eventbus carries PropertyChanged-shaped events (Volume, Delay,
// State transitions) from the transport graph and streaming workers out to
// the control-surface glue and the status API, decoupling the real-time
// path from anything slow.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btaudio/btaudiod/internal/config"
)

// Well-known topics published by the transport graph, streaming workers and
// the HFP SLC state machine.
const (
	TopicWorkerStarted   = "worker.started"
	TopicWorkerStopped   = "worker.stopped"
	TopicWorkerError     = "worker.error"
	TopicSLCStateChanged = "slc.state_changed"
	TopicPropertyChanged = "property.changed"
)

// PropertyChanged mirrors the external service's property-change signal
// shape: a property name on some entity, with its new value already
// serialized. The control surface and status API decode this uniformly
// regardless of which entity changed.
type PropertyChanged struct {
	EntityKind string `json:"entity_kind"`
	EntityID   uint64 `json:"entity_id"`
	Property   string `json:"property"`
	Value      any    `json:"value"`
}

// EventBus is a minimal publish/subscribe bus. Publishing never blocks on
// slow subscribers for longer than the bus's own fan-out buffer.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// PublishProperty is a convenience wrapper that JSON-encodes a
	// PropertyChanged event and publishes it on TopicPropertyChanged.
	PublishProperty(ctx context.Context, event PropertyChanged) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

// Subscription delivers messages published to the topic it was created
// from. Close unblocks any reader on Channel.
type Subscription interface {
	Channel() <-chan []byte
	Close() error
}

// MakeEventBus creates an in-memory bus when redis is the zero value, or a
// Redis-backed one otherwise. internal/store and internal/eventbus each
// take their own independent config.Redis section so one can be
// memory-backed while the other is Redis-backed.
func MakeEventBus(ctx context.Context, redis config.Redis) (EventBus, error) {
	if redis.Host == "" {
		return newMemoryBus(), nil
	}
	bus, err := newRedisBus(ctx, redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis event bus: %w", err)
	}
	return bus, nil
}

func encodeProperty(event PropertyChanged) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode property changed event: %w", err)
	}
	return payload, nil
}

// DecodeProperty is the inverse of PublishProperty's encoding, used by
// consumers of TopicPropertyChanged.
func DecodeProperty(payload []byte) (PropertyChanged, error) {
	var event PropertyChanged
	if err := json.Unmarshal(payload, &event); err != nil {
		return PropertyChanged{}, fmt.Errorf("failed to decode property changed event: %w", err)
	}
	return event, nil
}
