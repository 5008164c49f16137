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

package a2dp

import "github.com/btaudio/btaudiod/internal/btaerr"

// simpleRateTable and simpleModeTable back every codec whose capability
// blob is just a sample-rate mask and a channel-mode mask: A2DP LC3, the
// aptX family, and LHDC. Each uses its own bit layout on the wire, but the
// semantic tables and selection policy are shared.
var simpleRateTable = []Entry[SampleRate]{ //nolint:gochecknoglobals
	{Bit: 1 << 0, Value: Rate16000},
	{Bit: 1 << 1, Value: Rate32000},
	{Bit: 1 << 2, Value: Rate44100},
	{Bit: 1 << 3, Value: Rate48000},
	{Bit: 1 << 4, Value: Rate88200},
	{Bit: 1 << 5, Value: Rate96000},
}

var simpleModeTable = []Entry[ChannelMode]{ //nolint:gochecknoglobals
	{Bit: 1 << 0, Value: ChannelModeMono},
	{Bit: 1 << 1, Value: ChannelModeStereo},
}

// SimpleCapabilities covers codecs negotiated on sample rate and channel
// mode alone.
type SimpleCapabilities struct {
	SampleRates uint8
	ChannelModes uint8
}

// SimpleConfiguration is a fully-selected SimpleCapabilities configuration.
type SimpleConfiguration struct {
	SampleRate  SampleRate
	ChannelMode ChannelMode
}

// IntersectSimple bitwise-ANDs both fields.
func IntersectSimple(a, b SimpleCapabilities) SimpleCapabilities {
	return SimpleCapabilities{
		SampleRates:  a.SampleRates & b.SampleRates,
		ChannelModes: a.ChannelModes & b.ChannelModes,
	}
}

// CheckSimpleConfiguration validates that cfg's fields are members of caps.
func CheckSimpleConfiguration(caps SimpleCapabilities, cfg SimpleConfiguration) error {
	rateBit, ok := simpleBitForRate(cfg.SampleRate)
	if !ok || !Contains(caps.SampleRates, rateBit) {
		return btaerr.NewConfigError("rate")
	}
	modeBit, ok := simpleBitForMode(cfg.ChannelMode)
	if !ok || !Contains(caps.ChannelModes, modeBit) {
		return btaerr.NewConfigError("channel_mode")
	}
	return nil
}

// SelectSimple picks mono if policy.ForceMono, 44.1kHz if
// policy.Force44100, otherwise the highest channel count and sample rate
// available.
func SelectSimple(caps SimpleCapabilities, policy Policy) (SimpleConfiguration, error) {
	var cfg SimpleConfiguration

	if policy.ForceMono && Contains(caps.ChannelModes, 1<<0) {
		cfg.ChannelMode = ChannelModeMono
	} else if mode, _, ok := Best(caps.ChannelModes, simpleModeTable); ok {
		cfg.ChannelMode = mode
	} else {
		return SimpleConfiguration{}, btaerr.NewConfigError("channel_mode")
	}

	if policy.Force44100 && Contains(caps.SampleRates, 1<<2) {
		cfg.SampleRate = Rate44100
	} else if rate, _, ok := Best(caps.SampleRates, simpleRateTable); ok {
		cfg.SampleRate = rate
	} else {
		return SimpleConfiguration{}, btaerr.NewConfigError("rate")
	}

	return cfg, nil
}

func simpleBitForRate(r SampleRate) (uint8, bool) {
	for _, e := range simpleRateTable {
		if e.Value == r {
			return e.Bit, true
		}
	}
	return 0, false
}

func simpleBitForMode(m ChannelMode) (uint8, bool) {
	for _, e := range simpleModeTable {
		if e.Value == m {
			return e.Bit, true
		}
	}
	return 0, false
}

// LC3plusFrameDuration enumerates LC3plus's allowed frame durations.
type LC3plusFrameDuration uint8

// LC3plus frame durations, in the order the annex enumerates them.
const (
	LC3plusFrameDuration2p5ms LC3plusFrameDuration = 1 << iota
	LC3plusFrameDuration5ms
	LC3plusFrameDuration10ms
)

// LC3plusCapabilities extends SimpleCapabilities with the frame-duration
// enumeration the annex requires.
type LC3plusCapabilities struct {
	SimpleCapabilities
	FrameDurations LC3plusFrameDuration
}

// LC3plusConfiguration is a fully-selected LC3plus configuration.
type LC3plusConfiguration struct {
	SimpleConfiguration
	FrameDuration LC3plusFrameDuration
}

// IntersectLC3plus bitwise-ANDs every field including FrameDurations.
func IntersectLC3plus(a, b LC3plusCapabilities) LC3plusCapabilities {
	return LC3plusCapabilities{
		SimpleCapabilities: IntersectSimple(a.SimpleCapabilities, b.SimpleCapabilities),
		FrameDurations:     a.FrameDurations & b.FrameDurations,
	}
}

// CheckLC3plusConfiguration validates the inherited fields plus that
// cfg.FrameDuration is one of the enumerated durations and a member of caps.
func CheckLC3plusConfiguration(caps LC3plusCapabilities, cfg LC3plusConfiguration) error {
	if err := CheckSimpleConfiguration(caps.SimpleCapabilities, cfg.SimpleConfiguration); err != nil {
		return err
	}
	switch cfg.FrameDuration {
	case LC3plusFrameDuration2p5ms, LC3plusFrameDuration5ms, LC3plusFrameDuration10ms:
	default:
		return btaerr.NewConfigError("frame_duration")
	}
	if caps.FrameDurations&cfg.FrameDuration == 0 {
		return btaerr.NewConfigError("frame_duration")
	}
	return nil
}

// SelectLC3plus selects the shortest (lowest-latency) frame duration caps
// advertises, alongside the inherited rate/channel selection.
func SelectLC3plus(caps LC3plusCapabilities, policy Policy) (LC3plusConfiguration, error) {
	simple, err := SelectSimple(caps.SimpleCapabilities, policy)
	if err != nil {
		return LC3plusConfiguration{}, err
	}
	var duration LC3plusFrameDuration
	switch {
	case caps.FrameDurations&LC3plusFrameDuration2p5ms != 0:
		duration = LC3plusFrameDuration2p5ms
	case caps.FrameDurations&LC3plusFrameDuration5ms != 0:
		duration = LC3plusFrameDuration5ms
	case caps.FrameDurations&LC3plusFrameDuration10ms != 0:
		duration = LC3plusFrameDuration10ms
	default:
		return LC3plusConfiguration{}, btaerr.NewConfigError("frame_duration")
	}
	return LC3plusConfiguration{SimpleConfiguration: simple, FrameDuration: duration}, nil
}
