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

// Package control defines the Go interfaces a real D-Bus/BlueZ media,
// profile, and GATT integration implements, plus a concrete loopback
// surface exercising the full transport lifecycle without one.
package control

import "context"

// MediaEndpoint is one local A2DP SEP, matching the host service's
// org.bluez.MediaEndpoint1 surface: an endpoint advertises its codec and
// capability byte blob, the host asks it to narrow capabilities to a
// configuration, and later pushes the agreed configuration back down
// once a transport exists for it.
type MediaEndpoint interface {
	UUID() string
	Codec() uint8
	Capabilities() []byte

	// SelectConfiguration narrows a peer's advertised capability blob to
	// one concrete configuration blob of the same wire format.
	SelectConfiguration(ctx context.Context, capabilities []byte) ([]byte, error)
	// SetConfiguration is called once a transport object exists at
	// transportPath for this endpoint's negotiated link.
	SetConfiguration(ctx context.Context, transportPath string, properties map[string]any) error
	// ClearConfiguration tears down any state SetConfiguration built for
	// transportPath.
	ClearConfiguration(ctx context.Context, transportPath string) error
	// Release is called when the host service is shutting down or the
	// endpoint is being unregistered.
	Release(ctx context.Context) error
}

// ProfileHandler is one local HFP/HSP role, matching
// org.bluez.Profile1: the host hands over an already-connected RFCOMM
// fd once a peer connects on the registered profile UUID.
type ProfileHandler interface {
	NewConnection(ctx context.Context, devicePath string, fd int, fdProperties map[string]any) error
	RequestDisconnection(ctx context.Context, devicePath string) error
}

// GATTCharacteristic is the BLE-MIDI characteristic surface
// (midi.Characteristic), matching org.bluez.GattCharacteristic1's Read/
// AcquireWrite/AcquireNotify methods.
type GATTCharacteristic interface {
	UUID() string
	Read(ctx context.Context, options map[string]any) ([]byte, error)
	// AcquireWrite and AcquireNotify each return a socket fd the host
	// service will read or write BLE-MIDI packets through, plus the
	// negotiated ATT MTU.
	AcquireWrite(ctx context.Context, options map[string]any) (fd int, mtu int, err error)
	AcquireNotify(ctx context.Context, options map[string]any) (fd int, mtu int, err error)
}

// Acquirer is what Hub.Acquire's acquireFn wraps: a call to the host
// service's media-transport Acquire or TryAcquire method, or for SCO, a
// direct socket connect. Both return the same (fd, mtu_read, mtu_write)
// shape.
type Acquirer interface {
	Acquire(ctx context.Context, transportPath string) (fd, mtuRead, mtuWrite int, err error)
	TryAcquire(ctx context.Context, transportPath string) (fd, mtuRead, mtuWrite int, err error)
}
