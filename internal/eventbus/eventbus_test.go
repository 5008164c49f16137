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

package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/eventbus"
)

func makeTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("failed to create event bus: %v", err)
	}
	t.Cleanup(func() {
		_ = bus.Close()
	})
	return bus
}

func TestEventBusPublishAndSubscribe(t *testing.T) {
	t.Parallel()
	bus := makeTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "test-topic")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer func() { _ = sub.Close() }()

	msg := []byte("hello world")
	if err := bus.Publish(ctx, "test-topic", msg); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case received := <-sub.Channel():
		if string(received) != string(msg) {
			t.Errorf("expected %q, got %q", msg, received)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestEventBusDifferentTopicsDoNotCross(t *testing.T) {
	t.Parallel()
	bus := makeTestBus(t)
	ctx := context.Background()

	sub1, _ := bus.Subscribe(ctx, "topic1")
	defer func() { _ = sub1.Close() }()
	sub2, _ := bus.Subscribe(ctx, "topic2")
	defer func() { _ = sub2.Close() }()

	_ = bus.Publish(ctx, "topic1", []byte("for-topic1"))
	_ = bus.Publish(ctx, "topic2", []byte("for-topic2"))

	select {
	case received := <-sub1.Channel():
		if string(received) != "for-topic1" {
			t.Errorf("topic1: expected 'for-topic1', got %q", received)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out on topic1")
	}

	select {
	case received := <-sub2.Channel():
		if string(received) != "for-topic2" {
			t.Errorf("topic2: expected 'for-topic2', got %q", received)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out on topic2")
	}
}

func TestEventBusMultipleSubscribersFanOut(t *testing.T) {
	t.Parallel()
	bus := makeTestBus(t)
	ctx := context.Background()

	sub1, _ := bus.Subscribe(ctx, "fanout")
	defer func() { _ = sub1.Close() }()
	sub2, _ := bus.Subscribe(ctx, "fanout")
	defer func() { _ = sub2.Close() }()

	_ = bus.Publish(ctx, "fanout", []byte("broadcast"))

	for _, sub := range []eventbus.Subscription{sub1, sub2} {
		select {
		case received := <-sub.Channel():
			if string(received) != "broadcast" {
				t.Errorf("expected 'broadcast', got %q", received)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out message")
		}
	}
}

func TestEventBusPublishPropertyRoundTrips(t *testing.T) {
	t.Parallel()
	bus := makeTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, eventbus.TopicPropertyChanged)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer func() { _ = sub.Close() }()

	want := eventbus.PropertyChanged{
		EntityKind: "transport",
		EntityID:   7,
		Property:   "Volume",
		Value:      float64(42),
	}
	if err := bus.PublishProperty(ctx, want); err != nil {
		t.Fatalf("publish property failed: %v", err)
	}

	select {
	case payload := <-sub.Channel():
		got, err := eventbus.DecodeProperty(payload)
		if err != nil {
			t.Fatalf("decode property failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for property changed event")
	}
}

func TestEventBusCloseUnblocksSubscribers(t *testing.T) {
	t.Parallel()
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("failed to create event bus: %v", err)
	}
	sub, err := bus.Subscribe(context.Background(), "closing")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := bus.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel to close")
	}
}

func TestEventBusSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	t.Parallel()
	bus := makeTestBus(t)
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "slow")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer func() { _ = sub.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = bus.Publish(ctx, "slow", []byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a subscriber that never reads")
	}
}
