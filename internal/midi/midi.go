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

// Package midi encodes and decodes the BLE-MIDI packet format: a header
// byte carrying a 6-bit timestamp high field, followed by a sequence of
// timestamp-low/MIDI-bytes runs with running-status elision and explicit
// SysEx framing. It has no dependency on a GATT library — the BLE
// characteristic plumbing lives in the out-of-scope control surface, and
// this package only ever sees byte slices and an MTU.
package midi

import "errors"

// Characteristic is the GATT characteristic UUID BLE-MIDI read/write/
// notify operations are exposed on.
const Characteristic = "7772e5db-3868-4112-a1a9-f2669d106bf3"

const (
	sysExStart = 0xF0
	sysExEnd   = 0xF7
)

// ErrPacketFull is returned by Encoder.Write when the current packet has
// no room left for more bytes, or when a new message's timestamp no
// longer shares the open packet's latched timestamp-high field. The
// caller should Flush the current packet and start a fresh one — this is
// BLE-MIDI's analogue of EMSGSIZE.
var ErrPacketFull = errors.New("midi: packet full, start a new packet")

// timestampWindow is the width of the 13-bit millisecond timestamp BLE-MIDI
// packs across the header's 6 high bits and each run's 7 low bits.
const timestampWindow = 1 << 13
