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

// DecoderState tracks the expected incoming sequence number for one RTP
// stream and classifies each arriving header as in-order, a gap, or a
// duplicate/reorder to drop.
type DecoderState struct {
	ExpectedPayloadType uint8

	synced   bool
	expected uint16
}

// NewDecoderState creates decoder-side RTP state expecting payloadType.
func NewDecoderState(payloadType uint8) *DecoderState {
	return &DecoderState{ExpectedPayloadType: payloadType}
}

// SyncResult classifies one incoming header against the expected sequence.
type SyncResult struct {
	// Missing is the number of frames that were lost before this one, 0 if
	// none.
	Missing uint32
	// Dropped is true if this header is a duplicate or out-of-order replay
	// that should be discarded without decoding.
	Dropped bool
	// TimestampJump is true if this is the first observation (stream just
	// (re-)anchored), signalling the caller should not treat the timestamp
	// as contiguous with any prior one.
	TimestampJump bool
}

// SyncStream compares header's sequence number against the expected one.
// The first call after construction or after Unsync anchors the stream and
// always returns a zero Missing, TimestampJump true. Subsequent calls:
// delta==1 is normal; delta>1 reports Missing = delta-1; delta<=0 is a
// duplicate or reorder and Dropped is true.
func (d *DecoderState) SyncStream(h Header) SyncResult {
	if !d.synced {
		d.synced = true
		d.expected = h.Sequence + 1
		return SyncResult{TimestampJump: true}
	}

	delta := int32(h.Sequence) - int32(d.expected)
	switch {
	case delta == 0:
		d.expected++
		return SyncResult{}
	case delta > 0:
		missing := uint32(delta)
		d.expected = h.Sequence + 1
		return SyncResult{Missing: missing}
	default:
		return SyncResult{Dropped: true}
	}
}

// Unsync marks the stream as needing to re-anchor on the next SyncStream
// call, used when a PCM is reactivated after being marked inactive while the
// Bluetooth socket kept delivering datagrams.
func (d *DecoderState) Unsync() {
	d.synced = false
}

// Synced reports whether the stream has anchored.
func (d *DecoderState) Synced() bool {
	return d.synced
}

// GetPayload validates header's payload type against ExpectedPayloadType and
// returns the slice of data past the fixed header, CSRC list and any
// preceding bytes already accounted for by PayloadOffset. It returns
// ErrUnknownPayloadType if the payload type does not match.
func (d *DecoderState) GetPayload(data []byte, h Header) ([]byte, error) {
	if h.PayloadType != d.ExpectedPayloadType {
		return nil, ErrUnknownPayloadType
	}
	off := h.PayloadOffset()
	if off > len(data) {
		return nil, ErrShortPacket
	}
	return data[off:], nil
}
