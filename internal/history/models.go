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

// Package history logs device connections and codec selections for
// operational visibility. It is not Bluetooth state itself — losing this
// log never affects a transport's behavior, only what an operator can see
// after the fact.
package history

import "time"

// ConnectionEvent records one device connecting, disconnecting or
// selecting a codec on a profile.
type ConnectionEvent struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Address   string    `json:"address" gorm:"index"`
	Profile   string    `json:"profile"`
	Event     string    `json:"event"` // "connected", "disconnected", "codec_selected"
	CodecName string    `json:"codec_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
