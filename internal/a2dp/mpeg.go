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

// MPEGLayer enumerates the supported MPEG-1/2 audio layers.
type MPEGLayer uint8

// MPEG layers, lowest-numbered layer first.
const (
	MPEGLayer1 MPEGLayer = 1 << iota
	MPEGLayer2
	MPEGLayer3
)

const (
	mpegModeMono        uint8 = 1 << 0
	mpegModeDualChannel uint8 = 1 << 1
	mpegModeStereo      uint8 = 1 << 2
	mpegModeJointStereo uint8 = 1 << 3
)

var mpegModeTable = []Entry[ChannelMode]{ //nolint:gochecknoglobals
	{Bit: mpegModeMono, Value: ChannelModeMono},
	{Bit: mpegModeDualChannel, Value: ChannelModeDualChannel},
	{Bit: mpegModeStereo, Value: ChannelModeStereo},
	{Bit: mpegModeJointStereo, Value: ChannelModeJointStereo},
}

const (
	mpegRate16000 uint8 = 1 << iota
	mpegRate22050
	mpegRate24000
	mpegRate32000
	mpegRate44100
	mpegRate48000
)

var mpegRateTable = []Entry[SampleRate]{ //nolint:gochecknoglobals
	{Bit: mpegRate16000, Value: 16000},
	{Bit: mpegRate22050, Value: 22050},
	{Bit: mpegRate24000, Value: 24000},
	{Bit: mpegRate32000, Value: 32000},
	{Bit: mpegRate44100, Value: Rate44100},
	{Bit: mpegRate48000, Value: Rate48000},
}

// MPEGCapabilities is the intersected capability set for MPEG-1/2 audio.
type MPEGCapabilities struct {
	Layers       MPEGLayer
	ChannelModes uint8
	SampleRates  uint8
	Bitrates     uint16 // bitmask over the MPEG bitrate table, 15-bit field on the wire
	CRC          bool
	MPF2         bool
}

// MPEGConfiguration is a fully-selected MPEG-1/2 audio configuration.
type MPEGConfiguration struct {
	Layer       MPEGLayer
	ChannelMode ChannelMode
	SampleRate  SampleRate
	Bitrate     uint16
	CRC         bool
	MPF2        bool
}

// IntersectMPEG bitwise-ANDs every bitmask field.
func IntersectMPEG(a, b MPEGCapabilities) MPEGCapabilities {
	return MPEGCapabilities{
		Layers:       a.Layers & b.Layers,
		ChannelModes: a.ChannelModes & b.ChannelModes,
		SampleRates:  a.SampleRates & b.SampleRates,
		Bitrates:     a.Bitrates & b.Bitrates,
		CRC:          a.CRC && b.CRC,
		MPF2:         a.MPF2 && b.MPF2,
	}
}

// CheckMPEGConfiguration validates cfg.Layer is one of MP1/MP2/MP3 and is a
// member of caps, and that the channel mode and sample rate are members.
func CheckMPEGConfiguration(caps MPEGCapabilities, cfg MPEGConfiguration) error {
	switch cfg.Layer {
	case MPEGLayer1, MPEGLayer2, MPEGLayer3:
	default:
		return btaerr.NewConfigError("mpeg_layer")
	}
	if caps.Layers&cfg.Layer == 0 {
		return btaerr.NewConfigError("mpeg_layer")
	}
	if !Contains(caps.ChannelModes, mpegBitForMode(cfg.ChannelMode)) {
		return btaerr.NewConfigError("channel_mode")
	}
	if !Contains(caps.SampleRates, mpegBitForRate(cfg.SampleRate)) {
		return btaerr.NewConfigError("rate")
	}
	return nil
}

// SelectMPEG picks layer 3 if available (else 2, else 1), the highest
// channel count and sample rate, and forces CRC and MPF-2 off to save bits,
// per the A2DP capability engine's policy for MPEG/SBC.
func SelectMPEG(caps MPEGCapabilities, policy Policy) (MPEGConfiguration, error) {
	var layer MPEGLayer
	switch {
	case caps.Layers&MPEGLayer3 != 0:
		layer = MPEGLayer3
	case caps.Layers&MPEGLayer2 != 0:
		layer = MPEGLayer2
	case caps.Layers&MPEGLayer1 != 0:
		layer = MPEGLayer1
	default:
		return MPEGConfiguration{}, btaerr.NewConfigError("mpeg_layer")
	}

	mode := ChannelModeStereo
	if policy.ForceMono && Contains(caps.ChannelModes, mpegModeMono) {
		mode = ChannelModeMono
	} else if best, _, ok := Best(caps.ChannelModes, mpegModeTable); ok {
		mode = best
	}

	var rate SampleRate
	if policy.Force44100 && Contains(caps.SampleRates, mpegRate44100) {
		rate = Rate44100
	} else if best, _, ok := Best(caps.SampleRates, mpegRateTable); ok {
		rate = best
	} else {
		return MPEGConfiguration{}, btaerr.NewConfigError("rate")
	}

	bitrate := caps.Bitrates
	if bitrate == 0 {
		return MPEGConfiguration{}, btaerr.NewConfigError("rate")
	}

	return MPEGConfiguration{
		Layer:       layer,
		ChannelMode: mode,
		SampleRate:  rate,
		Bitrate:     bitrate,
		CRC:         false,
		MPF2:        false,
	}, nil
}

func mpegBitForMode(m ChannelMode) uint8 {
	switch m {
	case ChannelModeMono:
		return mpegModeMono
	case ChannelModeDualChannel:
		return mpegModeDualChannel
	case ChannelModeStereo:
		return mpegModeStereo
	default:
		return mpegModeJointStereo
	}
}

func mpegBitForRate(r SampleRate) uint8 {
	switch r {
	case 16000:
		return mpegRate16000
	case 22050:
		return mpegRate22050
	case 24000:
		return mpegRate24000
	case 32000:
		return mpegRate32000
	case Rate44100:
		return mpegRate44100
	default:
		return mpegRate48000
	}
}
