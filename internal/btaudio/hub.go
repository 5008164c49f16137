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

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidState is returned when a lifecycle method is called from a
// state that forbids it (e.g. Acquire on a transport that is not pending).
var ErrInvalidState = errors.New("transport: invalid state for operation")

// Hub owns the four arenas (Adapter, Device, Transport, PCM) and is the
// single synchronization point external callers — control-surface glue,
// the status API — go through. All cross-entity invariants (adapter.devices
// exists iff referenced, device.transports exists iff bound) are enforced
// here rather than by the arenas themselves.
type Hub struct {
	mu sync.Mutex

	Adapters   *Arena[Adapter]
	Devices    *Arena[Device]
	Transports *Arena[Transport]
	PCMs       *Arena[PCM]
}

// NewHub constructs an empty transport object graph.
func NewHub() *Hub {
	return &Hub{
		Adapters:   NewArena[Adapter](),
		Devices:    NewArena[Device](),
		Transports: NewArena[Transport](),
		PCMs:       NewArena[PCM](),
	}
}

// CreateAdapter registers a newly announced local controller.
func (h *Hub) CreateAdapter(controllerID, localAddress string, msbcEligible bool) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Adapters.Insert(Adapter{
		ControllerID: controllerID,
		LocalAddress: localAddress,
		MSBCEligible: msbcEligible,
		Devices:      make(map[Handle]struct{}),
	})
}

// DestroyAdapter removes a controller that has disappeared, dropping every
// device and transport still attached to it.
func (h *Hub) DestroyAdapter(adapter Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, err := h.Adapters.Get(adapter)
	if err != nil {
		return err
	}
	for deviceHandle := range a.Devices {
		h.destroyDeviceLocked(deviceHandle)
	}
	return h.Adapters.Remove(adapter)
}

// CreateDevice registers a remote peer under adapter, to be shared by every
// concurrent transport negotiated with it.
func (h *Hub) CreateDevice(adapter Handle, address, name string) (Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, err := h.Adapters.Get(adapter)
	if err != nil {
		return Handle{}, fmt.Errorf("create device: %w", err)
	}
	deviceHandle := h.Devices.Insert(Device{
		Adapter:      adapter,
		Address:      address,
		Name:         name,
		ClientDelays: make(map[uint32]int),
		Transports:   make(map[Handle]struct{}),
	})
	a.Devices[deviceHandle] = struct{}{}
	if err := h.Adapters.Update(adapter, func(v *Adapter) { v.Devices[deviceHandle] = struct{}{} }); err != nil {
		return Handle{}, fmt.Errorf("create device: %w", err)
	}
	return deviceHandle, nil
}

// CreateTransport negotiates a new media link on device and profile,
// starting in StateIdle ("new" in the lifecycle diagram).
func (h *Hub) CreateTransport(device Handle, profile Profile) (Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.Devices.Get(device); err != nil {
		return Handle{}, fmt.Errorf("create transport: %w", err)
	}
	transportHandle := h.Transports.Insert(Transport{
		Device:  device,
		Profile: profile,
		State:   StateIdle,
	})
	if err := h.Devices.Update(device, func(v *Device) { v.Transports[transportHandle] = struct{}{} }); err != nil {
		return Handle{}, fmt.Errorf("create transport: %w", err)
	}
	return transportHandle, nil
}

// Pend transitions a transport from idle to pending once its configuration
// has passed validation and its PCM has been armed.
func (h *Hub) Pend(t Handle) error {
	return h.Transports.Update(t, func(tr *Transport) {
		if tr.State != StateIdle {
			return
		}
		tr.State = StatePending
	})
	// Update's fn has no way to signal a precondition failure; callers
	// needing the distinction should check state first via Get.
}

// Acquire requests the Bluetooth socket for a pending transport via
// acquireFn and transitions it to active. acquireFn is expected to wrap
// the host service's TryAcquire/Acquire call (A2DP) or a direct connect
// (SCO); its fd and MTUs become immutable once set here.
func (h *Hub) Acquire(ctx context.Context, t Handle, acquireFn func(context.Context) (fd, mtuRead, mtuWrite int, err error)) error {
	current, err := h.Transports.Get(t)
	if err != nil {
		return err
	}
	if current.State != StatePending {
		return fmt.Errorf("%w: acquire requires pending, got %s", ErrInvalidState, current.State)
	}

	fd, mtuRead, mtuWrite, err := acquireFn(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	return h.Transports.Update(t, func(tr *Transport) {
		tr.BTFD = fd
		tr.MTURead = mtuRead
		tr.MTUWrite = mtuWrite
		tr.State = StateActive
		tr.RefCount++
	})
}

// Release signals workers to stop, returns the transport to idle, and is
// idempotent: releasing an already-idle transport is a no-op.
func (h *Hub) Release(t Handle) error {
	return h.Transports.Update(t, func(tr *Transport) {
		if tr.State == StateIdle {
			return
		}
		tr.State = StateIdle
		tr.BTFD = -1
	})
}

// Abort marks a transport aborted, the one state from which Destroy is the
// only further transition — used when a link-lost or resource-exhausted
// error is detected mid-stream.
func (h *Hub) Abort(t Handle) error {
	return h.Transports.Update(t, func(tr *Transport) {
		tr.State = StateAborted
	})
}

// Destroy releases t, detaches it from its device, and drops the arena
// entry. If that was the device's last transport, the device itself is
// destroyed and detached from its adapter. Destroy is valid from any
// state, matching "destroy from any state releases fds and drops
// refcounts to zero".
func (h *Hub) Destroy(t Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyTransportLocked(t)
}

func (h *Hub) destroyTransportLocked(t Handle) error {
	tr, err := h.Transports.Get(t)
	if err != nil {
		return err
	}

	_ = h.Release(t)

	if err := h.Devices.Update(tr.Device, func(d *Device) { delete(d.Transports, t) }); err != nil {
		return fmt.Errorf("destroy transport: detach from device: %w", err)
	}
	if err := h.Transports.Remove(t); err != nil {
		return fmt.Errorf("destroy transport: %w", err)
	}

	device, err := h.Devices.Get(tr.Device)
	if err == nil && len(device.Transports) == 0 {
		h.destroyDeviceLocked(tr.Device)
	}
	return nil
}

func (h *Hub) destroyDeviceLocked(device Handle) {
	d, err := h.Devices.Get(device)
	if err != nil {
		return
	}
	for transportHandle := range d.Transports {
		_ = h.destroyTransportLocked(transportHandle)
	}
	_ = h.Adapters.Update(d.Adapter, func(a *Adapter) { delete(a.Devices, device) })
	_ = h.Devices.Remove(device)
}
