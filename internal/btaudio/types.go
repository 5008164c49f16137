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

package transport

// MaxChannels bounds PCM.ChannelMap; channel_map[0..channels) must be
// unique and channels must never exceed it.
const MaxChannels = 8

// Profile identifies a negotiated media link's Bluetooth profile.
type Profile int

const (
	ProfileA2DPSource Profile = iota
	ProfileA2DPSink
	ProfileHFPAudioGateway
	ProfileHFPHandsFree
	ProfileHSPAudioGateway
	ProfileHSPHeadset
	ProfileMIDI
)

func (p Profile) String() string {
	switch p {
	case ProfileA2DPSource:
		return "a2dp_source"
	case ProfileA2DPSink:
		return "a2dp_sink"
	case ProfileHFPAudioGateway:
		return "hfp_audio_gateway"
	case ProfileHFPHandsFree:
		return "hfp_hands_free"
	case ProfileHSPAudioGateway:
		return "hsp_audio_gateway"
	case ProfileHSPHeadset:
		return "hsp_headset"
	case ProfileMIDI:
		return "midi"
	default:
		return "unknown"
	}
}

// State is a Transport's lifecycle state. The only valid forward path is
// idle -> pending -> active -> idle; aborted is absorbing and always
// triggers destruction.
type State int

const (
	StateIdle State = iota
	StatePending
	StateActive
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Adapter represents one local Bluetooth controller.
type Adapter struct {
	ControllerID string
	LocalAddress string
	// MSBCEligible mirrors the controller feature bits that gate whether
	// mSBC wideband speech can be offered over this adapter's SCO links.
	MSBCEligible bool
	Devices      map[Handle]struct{}
}

// Device is a remote Bluetooth peer, shared by all concurrent transports
// negotiated with it.
type Device struct {
	Adapter         Handle
	Address         string
	Name            string
	BatteryPercent  uint8
	XAPLFeatures    uint32
	ClientDelays    map[uint32]int // codec id -> decimilliseconds
	Transports      map[Handle]struct{}
}

// Transport is one negotiated media link with a device on a profile.
type Transport struct {
	Device    Handle
	Profile   Profile
	CodecID   uint32
	CodecBlob []byte

	BTFD      int
	MTURead   int
	MTUWrite  int

	Main        Handle // primary-direction PCM
	Backchannel Handle // optional second PCM (e.g. A2DP backchannel)

	// Companion links this transport to a paired transport negotiated for
	// the same call: an HFP/HSP transport's SCO companion, or a SCO
	// transport's owning HFP/HSP transport.
	Companion Handle

	RefCount int
	State    State
	// Generation is not written by the Hub or the arena and stays zero.
	// Stale-handle detection relies on the generation carried in Handle,
	// which every arena lookup checks.
	Generation uint64
}

// SampleFormat enumerates PCM sample encodings.
type SampleFormat int

const (
	SampleFormatS16LE SampleFormat = iota
	SampleFormatS24LE
	SampleFormatS32LE
)

// ChannelVolume is one channel's volume state.
type ChannelVolume struct {
	Level      uint8 // 0..127, codec-annex scale
	SoftMute   bool
	HardwareMute bool
}

// PCM is one half (capture or playback) of a transport.
type PCM struct {
	Format     SampleFormat
	Channels   int
	ChannelMap [MaxChannels]int

	SampleRate int
	Volume     [MaxChannels]ChannelVolume
	SoftVolume bool

	ClientDelayDMS     int
	CodecDelayDMS      int
	ProcessingDelayDMS int

	Active bool
	FD     int

	// DelayAdjustments is keyed by codec id, decimilliseconds.
	DelayAdjustments map[uint32]int
}

// Valid reports whether channels and channel map satisfy PCM's invariants:
// channels within MaxChannels and every active map entry unique.
func (p *PCM) Valid() bool {
	if p.Channels < 0 || p.Channels > MaxChannels {
		return false
	}
	seen := make(map[int]struct{}, p.Channels)
	for i := 0; i < p.Channels; i++ {
		if _, dup := seen[p.ChannelMap[i]]; dup {
			return false
		}
		seen[p.ChannelMap[i]] = struct{}{}
	}
	return true
}
