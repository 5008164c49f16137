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

// AACObjectType enumerates the MPEG-4 object types the A2DP AAC codec annex
// can negotiate.
type AACObjectType uint8

// AAC object types.
const (
	AACObjectMPEG2LC AACObjectType = 1 << iota
	AACObjectMPEG4LC
	AACObjectMPEG4LTP
	AACObjectMPEG4Scalable
)

// aacEncoderSupportedObjectTypes are the object types this repository's
// encoder binding can actually produce. LTP and Scalable are never
// negotiable even if a peer advertises them.
const aacEncoderSupportedObjectTypes = AACObjectMPEG2LC | AACObjectMPEG4LC

// AAC sample-rate bits, matching the 12-bit capability field's semantic
// values; order here is low-to-high so a reverse scan picks the best.
const (
	aacRate8000 uint16 = 1 << iota
	aacRate11025
	aacRate12000
	aacRate16000
	aacRate22050
	aacRate24000
	aacRate32000
	aacRate44100
	aacRate48000
	aacRate64000
	aacRate88200
	aacRate96000
)

type aacRateEntry struct {
	Bit   uint16
	Value SampleRate
}

var aacRateTable = []aacRateEntry{ //nolint:gochecknoglobals
	{aacRate8000, 8000},
	{aacRate11025, 11025},
	{aacRate12000, 12000},
	{aacRate16000, 16000},
	{aacRate22050, 22050},
	{aacRate24000, 24000},
	{aacRate32000, 32000},
	{aacRate44100, Rate44100},
	{aacRate48000, Rate48000},
	{aacRate64000, 64000},
	{aacRate88200, Rate88200},
	{aacRate96000, Rate96000},
}

const (
	aacChannelMono   uint8 = 1 << 0
	aacChannelStereo uint8 = 1 << 1
)

// AACCapabilities is the intersected capability set for the AAC codec.
type AACCapabilities struct {
	ObjectTypes AACObjectType
	SampleRates uint16
	Channels    uint8
	VBR         bool
	MaxBitrate  int // bits per second, 0 = unspecified
}

// AACConfiguration is a fully-selected AAC configuration.
type AACConfiguration struct {
	ObjectType AACObjectType
	SampleRate SampleRate
	Channels   ChannelMode
	VBR        bool
	Bitrate    int
}

// IntersectAAC bitwise-ANDs ObjectTypes/SampleRates/Channels, ANDs VBR, and
// clamps MaxBitrate to the lower of the two peers.
func IntersectAAC(a, b AACCapabilities) AACCapabilities {
	bitrate := a.MaxBitrate
	if b.MaxBitrate != 0 && (bitrate == 0 || b.MaxBitrate < bitrate) {
		bitrate = b.MaxBitrate
	}
	return AACCapabilities{
		ObjectTypes: a.ObjectTypes & b.ObjectTypes,
		SampleRates: a.SampleRates & b.SampleRates,
		Channels:    a.Channels & b.Channels,
		VBR:         a.VBR && b.VBR,
		MaxBitrate:  bitrate,
	}
}

// CheckAACConfiguration validates that cfg.ObjectType is one this encoder
// supports and is present in caps, and that the sample rate and channel
// count are members of caps.
func CheckAACConfiguration(caps AACCapabilities, cfg AACConfiguration) error {
	if cfg.ObjectType&aacEncoderSupportedObjectTypes == 0 {
		return btaerr.NewConfigError("object_type")
	}
	if caps.ObjectTypes&cfg.ObjectType == 0 {
		return btaerr.NewConfigError("object_type")
	}
	if caps.SampleRates&aacRateBit(cfg.SampleRate) == 0 {
		return btaerr.NewConfigError("rate")
	}
	wantChan := aacChannelMono
	if cfg.Channels != ChannelModeMono {
		wantChan = aacChannelStereo
	}
	if caps.Channels&wantChan == 0 {
		return btaerr.NewConfigError("channel_mode")
	}
	return nil
}

// SelectAAC picks the best AAC object type this encoder supports from
// caps's advertised set, the highest sample rate and stereo if available.
// It returns CodecNotSupported if caps has no overlap with the object types
// this encoder can produce (for example a peer that only advertises
// MPEG4-LTP).
func SelectAAC(caps AACCapabilities, policy Policy) (AACConfiguration, error) {
	usable := caps.ObjectTypes & aacEncoderSupportedObjectTypes
	if usable == 0 {
		return AACConfiguration{}, btaerr.New(btaerr.KindCodecNotSupported, nil)
	}

	objectType := AACObjectMPEG4LC
	if usable&AACObjectMPEG4LC == 0 {
		objectType = AACObjectMPEG2LC
	}

	rate, ok := aacBestRate(caps.SampleRates, policy)
	if !ok {
		return AACConfiguration{}, btaerr.NewConfigError("rate")
	}

	channels := ChannelModeStereo
	if policy.ForceMono || caps.Channels&aacChannelStereo == 0 {
		channels = ChannelModeMono
	}

	return AACConfiguration{
		ObjectType: objectType,
		SampleRate: rate,
		Channels:   channels,
		VBR:        caps.VBR,
		Bitrate:    caps.MaxBitrate,
	}, nil
}

func aacRateBit(r SampleRate) uint16 {
	for _, e := range aacRateTable {
		if e.Value == r {
			return e.Bit
		}
	}
	return 0
}

func aacBestRate(mask uint16, policy Policy) (SampleRate, bool) {
	if policy.Force44100 && mask&aacRate44100 != 0 {
		return Rate44100, true
	}
	for i := len(aacRateTable) - 1; i >= 0; i-- {
		if mask&aacRateTable[i].Bit != 0 {
			return aacRateTable[i].Value, true
		}
	}
	return 0, false
}
