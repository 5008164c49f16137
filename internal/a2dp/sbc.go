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

// SBCAllocation selects SBC's bit allocation method.
type SBCAllocation uint8

// SBC allocation methods, lowest preference first.
const (
	SBCAllocationSNR SBCAllocation = iota
	SBCAllocationLoudness
)

// Bitmask bits for the SBC capability fields, all ordered lowest-quality or
// lowest-value bit first.
const (
	sbcModeMono        uint8 = 1 << 0
	sbcModeDualChannel uint8 = 1 << 1
	sbcModeStereo      uint8 = 1 << 2
	sbcModeJointStereo uint8 = 1 << 3

	sbcRate16000 uint8 = 1 << 0
	sbcRate32000 uint8 = 1 << 1
	sbcRate44100 uint8 = 1 << 2
	sbcRate48000 uint8 = 1 << 3

	sbcBlocks4  uint8 = 1 << 0
	sbcBlocks8  uint8 = 1 << 1
	sbcBlocks12 uint8 = 1 << 2
	sbcBlocks16 uint8 = 1 << 3

	sbcSubbands4 uint8 = 1 << 0
	sbcSubbands8 uint8 = 1 << 1

	sbcAllocSNR      uint8 = 1 << 0
	sbcAllocLoudness uint8 = 1 << 1
)

var sbcModeTable = []Entry[ChannelMode]{ //nolint:gochecknoglobals
	{Bit: sbcModeMono, Value: ChannelModeMono},
	{Bit: sbcModeDualChannel, Value: ChannelModeDualChannel},
	{Bit: sbcModeStereo, Value: ChannelModeStereo},
	{Bit: sbcModeJointStereo, Value: ChannelModeJointStereo},
}

var sbcRateTable = []Entry[SampleRate]{ //nolint:gochecknoglobals
	{Bit: sbcRate16000, Value: Rate16000},
	{Bit: sbcRate32000, Value: Rate32000},
	{Bit: sbcRate44100, Value: Rate44100},
	{Bit: sbcRate48000, Value: Rate48000},
}

var sbcBlocksTable = []Entry[int]{ //nolint:gochecknoglobals
	{Bit: sbcBlocks4, Value: 4},
	{Bit: sbcBlocks8, Value: 8},
	{Bit: sbcBlocks12, Value: 12},
	{Bit: sbcBlocks16, Value: 16},
}

var sbcSubbandsTable = []Entry[int]{ //nolint:gochecknoglobals
	{Bit: sbcSubbands4, Value: 4},
	{Bit: sbcSubbands8, Value: 8},
}

var sbcAllocTable = []Entry[SBCAllocation]{ //nolint:gochecknoglobals
	{Bit: sbcAllocSNR, Value: SBCAllocationSNR},
	{Bit: sbcAllocLoudness, Value: SBCAllocationLoudness},
}

// sbcHighQualityMaxBitpool caps the "high quality" preset's bitpool even
// when the peer advertises a higher maximum.
const sbcHighQualityMaxBitpool = 250

// SBCCapabilities is the intersected capability set for the SBC codec.
type SBCCapabilities struct {
	ChannelModes      uint8
	SampleRates       uint8
	BlockLengths      uint8
	Subbands          uint8
	AllocationMethods uint8
	Bitpool           Range
}

// SBCConfiguration is a fully-selected SBC configuration, ready for
// check_configuration and then the encoder/decoder.
type SBCConfiguration struct {
	ChannelMode ChannelMode
	SampleRate  SampleRate
	BlockLength int
	Subbands    int
	Allocation  SBCAllocation
	Bitpool     Range
}

// IntersectSBC bitwise-ANDs every bitmask field and clamps the bitpool range
// to [max(mins), min(maxs)]. It is commutative and idempotent.
func IntersectSBC(a, b SBCCapabilities) SBCCapabilities {
	return SBCCapabilities{
		ChannelModes:      a.ChannelModes & b.ChannelModes,
		SampleRates:       a.SampleRates & b.SampleRates,
		BlockLengths:      a.BlockLengths & b.BlockLengths,
		Subbands:          a.Subbands & b.Subbands,
		AllocationMethods: a.AllocationMethods & b.AllocationMethods,
		Bitpool:           a.Bitpool.Intersect(b.Bitpool),
	}
}

// CheckSBCConfiguration validates cfg against caps per §4.4: every selected
// field must be a member of the capability set, and the bitpool range must
// lie within caps.Bitpool.
func CheckSBCConfiguration(caps SBCCapabilities, cfg SBCConfiguration) error {
	modeBit := sbcBitForMode(cfg.ChannelMode)
	if !Contains(caps.ChannelModes, modeBit) {
		return btaerr.NewConfigError("channel_mode")
	}
	if !Contains(caps.SampleRates, sbcBitForRate(cfg.SampleRate)) {
		return btaerr.NewConfigError("rate")
	}
	if !Contains(caps.BlockLengths, sbcBitForBlocks(cfg.BlockLength)) {
		return btaerr.NewConfigError("block_length")
	}
	if !Contains(caps.Subbands, sbcBitForSubbands(cfg.Subbands)) {
		return btaerr.NewConfigError("sub_bands")
	}
	if !Contains(caps.AllocationMethods, sbcBitForAlloc(cfg.Allocation)) {
		return btaerr.NewConfigError("allocation_method")
	}
	if cfg.Bitpool.Empty() || cfg.Bitpool.Min < caps.Bitpool.Min || cfg.Bitpool.Max > caps.Bitpool.Max {
		return btaerr.NewConfigError("bit_pool_range")
	}
	return nil
}

// SelectSBC picks a single-value configuration from caps per policy. SBC-XQ
// (policy.SBCQuality == SBCQualityXQ) prefers dual-channel, 16-block,
// 8-subband, loudness allocation; any field XQ cannot satisfy falls back to
// the normal highest-quality pick for that field alone, and the high-quality
// bitpool cap does not apply once dual-channel XQ mode is selected.
func SelectSBC(caps SBCCapabilities, policy Policy) (SBCConfiguration, error) {
	var cfg SBCConfiguration

	switch {
	case policy.ForceMono && Contains(caps.ChannelModes, sbcModeMono):
		cfg.ChannelMode = ChannelModeMono
	case policy.SBCQuality == SBCQualityXQ && Contains(caps.ChannelModes, sbcModeDualChannel):
		cfg.ChannelMode = ChannelModeDualChannel
	default:
		mode, _, ok := Best(caps.ChannelModes, sbcModeTable)
		if !ok {
			return SBCConfiguration{}, btaerr.NewConfigError("channel_mode")
		}
		cfg.ChannelMode = mode
	}

	switch {
	case policy.Force44100 && Contains(caps.SampleRates, sbcRate44100):
		cfg.SampleRate = Rate44100
	default:
		rate, _, ok := Best(caps.SampleRates, sbcRateTable)
		if !ok {
			return SBCConfiguration{}, btaerr.NewConfigError("rate")
		}
		cfg.SampleRate = rate
	}

	if policy.SBCQuality == SBCQualityXQ && Contains(caps.BlockLengths, sbcBlocks16) {
		cfg.BlockLength = 16
	} else {
		blocks, _, ok := Best(caps.BlockLengths, sbcBlocksTable)
		if !ok {
			return SBCConfiguration{}, btaerr.NewConfigError("block_length")
		}
		cfg.BlockLength = blocks
	}

	if policy.SBCQuality == SBCQualityXQ && Contains(caps.Subbands, sbcSubbands8) {
		cfg.Subbands = 8
	} else {
		subbands, _, ok := Best(caps.Subbands, sbcSubbandsTable)
		if !ok {
			return SBCConfiguration{}, btaerr.NewConfigError("sub_bands")
		}
		cfg.Subbands = subbands
	}

	alloc, _, ok := Best(caps.AllocationMethods, sbcAllocTable)
	if !ok {
		return SBCConfiguration{}, btaerr.NewConfigError("allocation_method")
	}
	cfg.Allocation = alloc

	cfg.Bitpool = caps.Bitpool
	isXQEngaged := policy.SBCQuality == SBCQualityXQ && cfg.ChannelMode == ChannelModeDualChannel
	if !isXQEngaged && cfg.Bitpool.Max > sbcHighQualityMaxBitpool {
		cfg.Bitpool.Max = sbcHighQualityMaxBitpool
	}

	return cfg, nil
}

func sbcBitForMode(m ChannelMode) uint8 {
	switch m {
	case ChannelModeMono:
		return sbcModeMono
	case ChannelModeDualChannel:
		return sbcModeDualChannel
	case ChannelModeStereo:
		return sbcModeStereo
	default:
		return sbcModeJointStereo
	}
}

func sbcBitForRate(r SampleRate) uint8 {
	switch r {
	case Rate16000:
		return sbcRate16000
	case Rate32000:
		return sbcRate32000
	case Rate44100:
		return sbcRate44100
	default:
		return sbcRate48000
	}
}

func sbcBitForBlocks(n int) uint8 {
	switch n {
	case 4:
		return sbcBlocks4
	case 8:
		return sbcBlocks8
	case 12:
		return sbcBlocks12
	default:
		return sbcBlocks16
	}
}

func sbcBitForSubbands(n int) uint8 {
	if n == 4 {
		return sbcSubbands4
	}
	return sbcSubbands8
}

func sbcBitForAlloc(a SBCAllocation) uint8 {
	if a == SBCAllocationSNR {
		return sbcAllocSNR
	}
	return sbcAllocLoudness
}
