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

package midi_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btaudio/btaudiod/internal/midi"
)

func TestEncodeDecodeRoundTripsRunningStatusElidedNotes(t *testing.T) {
	t.Parallel()

	enc := midi.NewEncoder(64)
	if _, err := enc.Write(0, []byte{0x90, 60, 100}); err != nil {
		t.Fatalf("write first note: %v", err)
	}
	if _, err := enc.Write(5, []byte{0x90, 64, 100}); err != nil {
		t.Fatalf("write second note: %v", err)
	}
	packet := enc.Flush()
	if packet == nil {
		t.Fatal("expected a flushed packet")
	}

	// Running status elision: the second event omits its own 0x90 byte.
	if bytes.Contains(packet[3:], []byte{0x90}) {
		t.Errorf("expected running status elision, found a second 0x90 byte in %x", packet)
	}

	dec := midi.NewDecoder()
	events, err := dec.Decode(packet)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !bytes.Equal(events[0].Data, []byte{0x90, 60, 100}) {
		t.Errorf("event 0 = %x, want 90 3c 64", events[0].Data)
	}
	if !bytes.Equal(events[1].Data, []byte{0x90, 64, 100}) {
		t.Errorf("event 1 = %x, want 90 40 64", events[1].Data)
	}
	if events[1].TimestampMs != 5 {
		t.Errorf("event 1 timestamp = %d, want 5", events[1].TimestampMs)
	}
}

func TestEncoderReturnsPacketFullWhenMTUExhausted(t *testing.T) {
	t.Parallel()

	enc := midi.NewEncoder(6) // header + 1 timestamped 3-byte message, no room for a second
	if _, err := enc.Write(0, []byte{0x90, 60, 100}); err != nil {
		t.Fatalf("write first note: %v", err)
	}
	if _, err := enc.Write(1, []byte{0x80, 60, 0}); !errors.Is(err, midi.ErrPacketFull) {
		t.Fatalf("expected ErrPacketFull, got %v", err)
	}
}

func TestEncoderStartsNewPacketOnTimestampHighRollover(t *testing.T) {
	t.Parallel()

	enc := midi.NewEncoder(64)
	if _, err := enc.Write(0, []byte{0x90, 60, 100}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// 128ms later the 6-bit timestamp-high field has advanced from 0 to 1,
	// while this packet's header already latched 0; the encoder must refuse
	// to mix timestamp-high values within one packet.
	if _, err := enc.Write(128, []byte{0x80, 60, 0}); !errors.Is(err, midi.ErrPacketFull) {
		t.Fatalf("expected ErrPacketFull on timestamp-high rollover, got %v", err)
	}
}

func TestSysExMessageSpansMultiplePackets(t *testing.T) {
	t.Parallel()

	sysex := append([]byte{0xF0}, bytes.Repeat([]byte{0x01, 0x02, 0x03}, 10)...)
	sysex = append(sysex, 0xF7)

	enc := midi.NewEncoder(16)
	dec := midi.NewDecoder()

	var events []midi.Event
	offset := 0
	for offset < len(sysex) {
		n, err := enc.Write(0, sysex[offset:])
		if err != nil && !errors.Is(err, midi.ErrPacketFull) {
			t.Fatalf("write sysex chunk: %v", err)
		}
		offset += n
		if err != nil || offset >= len(sysex) {
			packet := enc.Flush()
			if packet == nil {
				t.Fatal("expected a packet to flush")
			}
			got, decErr := dec.Decode(packet)
			if decErr != nil {
				t.Fatalf("decode chunk: %v", decErr)
			}
			events = append(events, got...)
		}
	}

	if len(events) != 1 {
		t.Fatalf("expected exactly one reassembled SysEx event, got %d", len(events))
	}
	if !bytes.Equal(events[0].Data, sysex) {
		t.Errorf("reassembled sysex = %x, want %x", events[0].Data, sysex)
	}
}

func TestDecodeRejectsPacketWithoutHeaderByte(t *testing.T) {
	t.Parallel()
	dec := midi.NewDecoder()
	if _, err := dec.Decode([]byte{0x05, 0x90, 60, 100}); err == nil {
		t.Error("expected an error for a packet missing its header byte's top bit")
	}
}
