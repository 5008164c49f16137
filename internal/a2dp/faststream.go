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

// FastStreamDirection is a bitmask of the directions FastStream negotiates
// simultaneously: a music sink stream and a voice backchannel.
type FastStreamDirection uint8

// FastStream directions.
const (
	FastStreamSink FastStreamDirection = 1 << iota
	FastStreamSource
)

// FastStreamCapabilities is the intersected capability set for FastStream.
type FastStreamCapabilities struct {
	Directions  FastStreamDirection
	MusicRate   SampleRate // fixed at 44100 in the annex, kept for clarity
	VoiceRate   SampleRate // fixed at 16000 (mSBC) in the annex
}

// FastStreamConfiguration is a fully-selected FastStream configuration.
type FastStreamConfiguration struct {
	Directions FastStreamDirection
	MusicRate  SampleRate
	VoiceRate  SampleRate
}

// IntersectFastStream ANDs the direction mask; MusicRate/VoiceRate are fixed
// by the annex so intersection is the peer's shared value or zero if they
// disagree.
func IntersectFastStream(a, b FastStreamCapabilities) FastStreamCapabilities {
	out := FastStreamCapabilities{Directions: a.Directions & b.Directions}
	if a.MusicRate == b.MusicRate {
		out.MusicRate = a.MusicRate
	}
	if a.VoiceRate == b.VoiceRate {
		out.VoiceRate = a.VoiceRate
	}
	return out
}

// CheckFastStreamConfiguration fails with InvalidConfiguration{directions}
// if cfg advertises no direction at all — FastStream always negotiates
// music, voice, or both; neither is not a valid configuration.
func CheckFastStreamConfiguration(caps FastStreamCapabilities, cfg FastStreamConfiguration) error {
	if cfg.Directions == 0 {
		return btaerr.NewConfigError("directions")
	}
	if caps.Directions&cfg.Directions != cfg.Directions {
		return btaerr.NewConfigError("directions")
	}
	return nil
}

// SelectFastStream copies through whichever directions caps advertises.
// Selection itself cannot fail (an empty capability set simply selects an
// empty direction mask); CheckFastStreamConfiguration is what rejects it.
func SelectFastStream(caps FastStreamCapabilities) FastStreamConfiguration {
	return FastStreamConfiguration{
		Directions: caps.Directions,
		MusicRate:  caps.MusicRate,
		VoiceRate:  caps.VoiceRate,
	}
}
