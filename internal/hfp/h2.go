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

package hfp

// H2SyncByte is the fixed first byte of every H2 synchronization header
// framing an mSBC payload over SCO.
const H2SyncByte = 0x01

// h2FrameCounterByte validates the second H2 byte's layout: the low nibble
// is the fixed pattern 0b1000, and the high nibble packs a 2-bit frame
// counter with each bit duplicated across a pair — 0b0000 1 [SN0 SN0]
// [SN1 SN1] 1 in wire order. A byte whose duplicated pair disagrees (e.g.
// 0x48, where the high pair is 01 rather than 00 or 11) is rejected as
// mis-duplicated rather than treated as a frame counter value.
func h2FrameCounterByte(b byte) (counter int, ok bool) {
	if b&0b00001111 != 0b00001000 {
		return 0, false
	}
	hiPair := (b >> 6) & 0b11
	loPair := (b >> 4) & 0b11
	if hiPair != 0b00 && hiPair != 0b11 {
		return 0, false
	}
	if loPair != 0b00 && loPair != 0b11 {
		return 0, false
	}
	sn1 := 0
	if hiPair == 0b11 {
		sn1 = 1
	}
	sn0 := 0
	if loPair == 0b11 {
		sn0 = 1
	}
	return sn1<<1 | sn0, true
}

// FindH2Header performs a byte-by-byte sliding scan of data, looking for
// a two-byte H2 synchronization header. It returns the offset of the
// header's first byte, the 2-bit frame counter it carries, and whether a
// valid header was found at all. Sequences where the second byte's
// sync-number bits are not properly duplicated are rejected even if the
// first byte matches, matching a corrupted or resynchronizing SCO stream.
func FindH2Header(data []byte) (offset int, frameCounter int, ok bool) {
	for i := 0; i+1 < len(data); i++ {
		if data[i] != H2SyncByte {
			continue
		}
		if counter, valid := h2FrameCounterByte(data[i+1]); valid {
			return i, counter, true
		}
	}
	return 0, 0, false
}
