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

// Package a2dp implements the A2DP capability engine: per-codec capability
// intersection, configuration validation, and single-value selection. It
// operates purely on capability/configuration structs; it knows nothing
// about sockets or RTP.
package a2dp

// Entry pairs one capability bitmask bit with its semantic value. Tables are
// ordered lowest-quality first (mono before stereo, low rates before high),
// so picking the best available value is a reverse scan.
type Entry[T any] struct {
	Bit   uint8
	Value T
}

// ForEach walks mask from its table's defined bits and invokes fn for each
// bit set in mask, in table order (lowest quality first).
func ForEach[T any](mask uint8, table []Entry[T], fn func(bit uint8, value T)) {
	for _, e := range table {
		if mask&e.Bit != 0 {
			fn(e.Bit, e.Value)
		}
	}
}

// Best returns the value for the highest-quality bit set in mask, scanning
// table from the end, and ok=false if no bit in mask appears in table.
func Best[T any](mask uint8, table []Entry[T]) (value T, bit uint8, ok bool) {
	for i := len(table) - 1; i >= 0; i-- {
		if mask&table[i].Bit != 0 {
			return table[i].Value, table[i].Bit, true
		}
	}
	var zero T
	return zero, 0, false
}

// Contains reports whether bit is a member of mask.
func Contains(mask, bit uint8) bool {
	return mask&bit != 0
}

// SampleRate is a PCM sample rate in Hz.
type SampleRate uint32

// Common A2DP sample rates, lowest first.
const (
	Rate16000 SampleRate = 16000
	Rate32000 SampleRate = 32000
	Rate44100 SampleRate = 44100
	Rate48000 SampleRate = 48000
	Rate88200 SampleRate = 88200
	Rate96000 SampleRate = 96000
)

// ChannelMode enumerates how a codec splits stereo content across the
// bitstream.
type ChannelMode uint8

// Channel modes, mono first so selection's reverse scan prefers more
// channels.
const (
	ChannelModeMono ChannelMode = iota
	ChannelModeDualChannel
	ChannelModeStereo
	ChannelModeJointStereo
)

// ChannelCount returns how many PCM channels mode carries.
func (m ChannelMode) ChannelCount() int {
	if m == ChannelModeMono {
		return 1
	}
	return 2
}

// Range is an inclusive [Min, Max] range used for fields intersected by
// clamping rather than bitwise AND (SBC bitpool, AAC bitrate).
type Range struct {
	Min, Max int
}

// Intersect clamps to [max(Min), min(Max)]. The result may be empty
// (Min > Max) if the two ranges do not overlap.
func (r Range) Intersect(o Range) Range {
	out := Range{Min: r.Min, Max: r.Max}
	if o.Min > out.Min {
		out.Min = o.Min
	}
	if o.Max < out.Max {
		out.Max = o.Max
	}
	return out
}

// Empty reports whether the range has no valid members.
func (r Range) Empty() bool {
	return r.Min > r.Max
}

// Policy carries the caller-selectable preferences that influence Select
// across every codec: forcing mono or 44.1kHz output, and the SBC quality
// tier.
type Policy struct {
	ForceMono    bool
	Force44100   bool
	SBCQuality   SBCQuality
}

// SBCQuality selects between the SBC "high quality" and "XQ" presets.
type SBCQuality uint8

// SBC quality tiers.
const (
	SBCQualityHigh SBCQuality = iota
	SBCQualityXQ
)
