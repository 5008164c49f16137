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

// Package rtp implements the per-stream RTP bookkeeping A2DP transports use
// to frame codec payloads: header marshaling, encoder-side sequence and
// timestamp advancement, and decoder-side gap detection and resync.
package rtp

import "encoding/binary"

// HeaderSize is the fixed 12-byte RTP header before any CSRC identifiers.
const HeaderSize = 12

// Header is the bit-packed RTP header: version, padding, extension, CSRC
// count, marker, payload type, sequence number, timestamp and SSRC. A2DP
// leaves a codec-specific payload header immediately after the CSRC list,
// which callers access via Payload/PayloadOffset.
type Header struct {
	Version     uint8
	Padding     bool
	Extension   bool
	CSRCCount   uint8
	Marker      bool
	PayloadType uint8
	Sequence    uint16
	Timestamp   uint32
	SSRC        uint32
}

// DefaultVersion is the only RTP version A2DP uses.
const DefaultVersion = 2

// Marshal writes the header into dst, which must have at least HeaderSize +
// 4*CSRCCount bytes. It returns the number of bytes written.
func (h Header) Marshal(dst []byte) int {
	dst[0] = (h.Version << 6) & 0xC0
	if h.Padding {
		dst[0] |= 0x20
	}
	if h.Extension {
		dst[0] |= 0x10
	}
	dst[0] |= h.CSRCCount & 0x0F

	dst[1] = h.PayloadType & 0x7F
	if h.Marker {
		dst[1] |= 0x80
	}

	binary.BigEndian.PutUint16(dst[2:4], h.Sequence)
	binary.BigEndian.PutUint32(dst[4:8], h.Timestamp)
	binary.BigEndian.PutUint32(dst[8:12], h.SSRC)
	return HeaderSize
}

// Unmarshal parses an RTP header from the front of src. It returns
// ErrShortPacket if src is smaller than the fixed header plus its declared
// CSRC list.
func Unmarshal(src []byte) (Header, error) {
	if len(src) < HeaderSize {
		return Header{}, ErrShortPacket
	}
	h := Header{
		Version:     src[0] >> 6,
		Padding:     src[0]&0x20 != 0,
		Extension:   src[0]&0x10 != 0,
		CSRCCount:   src[0] & 0x0F,
		Marker:      src[1]&0x80 != 0,
		PayloadType: src[1] & 0x7F,
		Sequence:    binary.BigEndian.Uint16(src[2:4]),
		Timestamp:   binary.BigEndian.Uint32(src[4:8]),
		SSRC:        binary.BigEndian.Uint32(src[8:12]),
	}
	if len(src) < h.PayloadOffset() {
		return Header{}, ErrShortPacket
	}
	return h, nil
}

// PayloadOffset is the byte offset of the first byte past the CSRC list
// (the start of any codec-specific payload header).
func (h Header) PayloadOffset() int {
	return HeaderSize + int(h.CSRCCount)*4
}
