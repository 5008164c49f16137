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

package status

import (
	transport "github.com/btaudio/btaudiod/internal/btaudio"
)

// AdapterView is the read-only projection of a transport.Adapter this API
// serializes. It never exposes the arena's internal Handle type directly in
// a field name that could be confused with a live object reference.
type AdapterView struct {
	ID           string   `json:"id"`
	ControllerID string   `json:"controller_id"`
	LocalAddress string   `json:"local_address"`
	MSBCEligible bool     `json:"msbc_eligible"`
	Devices      []string `json:"devices"`
}

func newAdapterView(h transport.Handle, a transport.Adapter) AdapterView {
	v := AdapterView{
		ID:           h.String(),
		ControllerID: a.ControllerID,
		LocalAddress: a.LocalAddress,
		MSBCEligible: a.MSBCEligible,
		Devices:      make([]string, 0, len(a.Devices)),
	}
	for d := range a.Devices {
		v.Devices = append(v.Devices, d.String())
	}
	return v
}

// DeviceView is the read-only projection of a transport.Device.
type DeviceView struct {
	ID             string   `json:"id"`
	Adapter        string   `json:"adapter"`
	Address        string   `json:"address"`
	Name           string   `json:"name"`
	BatteryPercent uint8    `json:"battery_percent"`
	XAPLFeatures   uint32   `json:"xapl_features"`
	Transports     []string `json:"transports"`
}

func newDeviceView(h transport.Handle, d transport.Device) DeviceView {
	v := DeviceView{
		ID:             h.String(),
		Adapter:        d.Adapter.String(),
		Address:        d.Address,
		Name:           d.Name,
		BatteryPercent: d.BatteryPercent,
		XAPLFeatures:   d.XAPLFeatures,
		Transports:     make([]string, 0, len(d.Transports)),
	}
	for t := range d.Transports {
		v.Transports = append(v.Transports, t.String())
	}
	return v
}

// TransportView is the read-only projection of a transport.Transport.
type TransportView struct {
	ID        string `json:"id"`
	Device    string `json:"device"`
	Profile   string `json:"profile"`
	CodecID   uint32 `json:"codec_id"`
	State     string `json:"state"`
	MTURead   int    `json:"mtu_read"`
	MTUWrite  int    `json:"mtu_write"`
	RefCount  int    `json:"ref_count"`
	Companion string `json:"companion,omitempty"`
}

func newTransportView(h transport.Handle, t transport.Transport) TransportView {
	v := TransportView{
		ID:       h.String(),
		Device:   t.Device.String(),
		Profile:  t.Profile.String(),
		CodecID:  t.CodecID,
		State:    t.State.String(),
		MTURead:  t.MTURead,
		MTUWrite: t.MTUWrite,
		RefCount: t.RefCount,
	}
	if t.Companion.Valid() {
		v.Companion = t.Companion.String()
	}
	return v
}

// Snapshot is the full-graph export the snapshot endpoint returns.
type Snapshot struct {
	Adapters   []AdapterView   `json:"adapters"`
	Devices    []DeviceView    `json:"devices"`
	Transports []TransportView `json:"transports"`
}

func newSnapshot(hub *transport.Hub) Snapshot {
	snap := Snapshot{}
	hub.Adapters.Range(func(h transport.Handle, a transport.Adapter) bool {
		snap.Adapters = append(snap.Adapters, newAdapterView(h, a))
		return true
	})
	hub.Devices.Range(func(h transport.Handle, d transport.Device) bool {
		snap.Devices = append(snap.Devices, newDeviceView(h, d))
		return true
	})
	hub.Transports.Range(func(h transport.Handle, t transport.Transport) bool {
		snap.Transports = append(snap.Transports, newTransportView(h, t))
		return true
	})
	return snap
}
