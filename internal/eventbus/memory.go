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

package eventbus

import (
	"context"
	"sync"
)

// subscriberBuffer bounds how far a slow subscriber can lag before newly
// published messages are dropped for it; the real-time streaming path must
// never block on a diagnostics consumer.
const subscriberBuffer = 64

type memoryBus struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

func newMemoryBus() EventBus {
	return &memoryBus{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (b *memoryBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[topic] {
		select {
		case sub.ch <- payload:
		default:
			// Subscriber is behind; drop rather than block the publisher.
		}
	}
	return nil
}

func (b *memoryBus) PublishProperty(ctx context.Context, event PropertyChanged) error {
	payload, err := encodeProperty(event)
	if err != nil {
		return err
	}
	return b.Publish(ctx, TopicPropertyChanged, payload)
}

func (b *memoryBus) Subscribe(_ context.Context, topic string) (Subscription, error) {
	sub := &memorySubscription{
		bus:   b,
		topic: topic,
		ch:    make(chan []byte, subscriberBuffer),
	}
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memorySubscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	b.mu.Unlock()
	return sub, nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topicSubs := range b.subs {
		for sub := range topicSubs {
			close(sub.ch)
		}
	}
	b.subs = make(map[string]map[*memorySubscription]struct{})
	return nil
}

type memorySubscription struct {
	bus   *memoryBus
	topic string
	ch    chan []byte
}

func (s *memorySubscription) Channel() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if topicSubs, ok := s.bus.subs[s.topic]; ok {
		if _, present := topicSubs[s]; present {
			delete(topicSubs, s)
			close(s.ch)
		}
	}
	return nil
}
