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

package history_test

import (
	"context"
	"testing"

	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/history"
)

func TestMakeHistoryDisabledReturnsNoop(t *testing.T) {
	t.Parallel()
	h, err := history.MakeHistory(config.History{Enabled: false}, "")
	if err != nil {
		t.Fatalf("failed to create history: %v", err)
	}
	defer func() { _ = h.Close() }()

	if err := h.Record(context.Background(), history.ConnectionEvent{Address: "AA:BB"}); err != nil {
		t.Errorf("expected noop record to succeed, got: %v", err)
	}
	events, err := h.Recent(context.Background(), 10)
	if err != nil {
		t.Errorf("expected noop recent to succeed, got: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events from noop history, got %d", len(events))
	}
}

func TestHistoryRecordAndRecent(t *testing.T) {
	t.Parallel()
	h, err := history.MakeHistory(config.History{Enabled: true, DSN: ":memory:"}, "")
	if err != nil {
		t.Fatalf("failed to create history: %v", err)
	}
	defer func() { _ = h.Close() }()

	ctx := context.Background()
	events := []history.ConnectionEvent{
		{Address: "AA:BB:CC:DD:EE:FF", Profile: "a2dp-sink", Event: "connected"},
		{Address: "AA:BB:CC:DD:EE:FF", Profile: "a2dp-sink", Event: "codec_selected", CodecName: "sbc"},
	}
	for _, e := range events {
		if err := h.Record(ctx, e); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	recent, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events, got %d", len(recent))
	}
}

func TestHistoryRecentRespectsLimit(t *testing.T) {
	t.Parallel()
	h, err := history.MakeHistory(config.History{Enabled: true, DSN: ":memory:"}, "")
	if err != nil {
		t.Fatalf("failed to create history: %v", err)
	}
	defer func() { _ = h.Close() }()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := h.Record(ctx, history.ConnectionEvent{Address: "11:22", Event: "connected"}); err != nil {
			t.Fatalf("record failed: %v", err)
		}
	}

	recent, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events with limit, got %d", len(recent))
	}
}
