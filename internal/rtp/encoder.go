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

package rtp

// EncoderState advances the sequence counter and timestamp clock for one
// outgoing RTP stream. It is owned by a single streaming worker.
type EncoderState struct {
	PayloadType   uint8
	SSRC          uint32
	ClockRate     uint32 // rtp clock rate, Hz
	PCMRate       uint32 // source PCM sample rate, Hz
	sequence      uint16
	timestamp     uint32
}

// NewEncoderState creates encoder-side RTP state for a stream with the given
// payload type, SSRC, RTP clock rate and PCM sample rate.
func NewEncoderState(payloadType uint8, ssrc, clockRate, pcmRate uint32) *EncoderState {
	return &EncoderState{
		PayloadType: payloadType,
		SSRC:        ssrc,
		ClockRate:   clockRate,
		PCMRate:     pcmRate,
	}
}

// NewFrame increments the sequence counter and returns a Header with the
// current sequence and timestamp, ready for Marshal. marker should be true
// only on the final fragment of a packet spanning multiple RTP datagrams.
func (e *EncoderState) NewFrame(marker bool) Header {
	e.sequence++
	return Header{
		Version:     DefaultVersion,
		Marker:      marker,
		PayloadType: e.PayloadType,
		Sequence:    e.sequence,
		Timestamp:   e.timestamp,
		SSRC:        e.SSRC,
	}
}

// Update advances the timestamp clock by pcmFrames worth of samples,
// converted from the PCM rate to the RTP clock rate. Call once per encoded
// batch, after all fragments sharing that batch's timestamp have been sent.
func (e *EncoderState) Update(pcmFrames uint32) {
	e.timestamp += pcmFrames * e.ClockRate / e.PCMRate
}

// Sequence returns the most recently emitted sequence number.
func (e *EncoderState) Sequence() uint16 { return e.sequence }

// Timestamp returns the current RTP-clock timestamp.
func (e *EncoderState) Timestamp() uint32 { return e.timestamp }
