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

package control

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
)

const loopbackMTU = 1024

// LoopbackControlSurface is a concrete control surface that needs no
// real Bluetooth adapter: ConnectDevice creates a simulated peer and
// transport in the owning Hub, and Acquire hands back one end of a
// connected Unix-domain socketpair whose far end is echoed straight
// back. Whatever a worker encodes and writes out arrives back as what
// the same worker decodes — the audio/MIDI analogue of recording a
// stream and repeating it straight back to whoever sent it. This is what
// the daemon's --loopback mode runs, and what exercises the full
// transport lifecycle in tests with no physical hardware involved.
type LoopbackControlSurface struct {
	hub     *transport.Hub
	adapter transport.Handle

	mu     sync.Mutex
	nextID int
	paths  map[string]transport.Handle
	echoes map[string]*os.File
}

// NewLoopbackControlSurface registers one simulated local adapter in hub
// and returns a surface ready to accept simulated connections.
func NewLoopbackControlSurface(hub *transport.Hub) *LoopbackControlSurface {
	adapter := hub.CreateAdapter("loop0", "00:00:00:00:00:00", true)
	return &LoopbackControlSurface{
		hub:     hub,
		adapter: adapter,
		paths:   make(map[string]transport.Handle),
		echoes:  make(map[string]*os.File),
	}
}

// ConnectDevice registers a simulated remote peer and a new transport on
// profile, mirroring what a real ProfileHandler.NewConnection or
// MediaEndpoint.SetConfiguration call does once the host service reports
// a device, and returns the transport's handle plus the object-path-style
// string this surface's Acquire/TryAcquire key off of.
func (l *LoopbackControlSurface) ConnectDevice(address string, profile transport.Profile) (transport.Handle, string, error) {
	device, err := l.hub.CreateDevice(l.adapter, address, "loopback device")
	if err != nil {
		return transport.Handle{}, "", fmt.Errorf("loopback connect device: %w", err)
	}
	t, err := l.hub.CreateTransport(device, profile)
	if err != nil {
		return transport.Handle{}, "", fmt.Errorf("loopback connect device: %w", err)
	}

	l.mu.Lock()
	l.nextID++
	path := fmt.Sprintf("/loopback/transport%d", l.nextID)
	l.paths[path] = t
	l.mu.Unlock()

	return t, path, nil
}

// Acquire implements control.Acquirer, handing back one end of a
// connected socketpair; a goroutine echoes everything written to the far
// end straight back into it.
func (l *LoopbackControlSurface) Acquire(_ context.Context, transportPath string) (fd, mtuRead, mtuWrite int, err error) {
	return l.acquire(transportPath)
}

// TryAcquire behaves identically to Acquire for a loopback surface:
// there is no contention for it to fail on.
func (l *LoopbackControlSurface) TryAcquire(_ context.Context, transportPath string) (fd, mtuRead, mtuWrite int, err error) {
	return l.acquire(transportPath)
}

func (l *LoopbackControlSurface) acquire(transportPath string) (int, int, int, error) {
	l.mu.Lock()
	if _, ok := l.paths[transportPath]; !ok {
		l.mu.Unlock()
		return 0, 0, 0, fmt.Errorf("loopback acquire: unknown transport %q", transportPath)
	}
	l.mu.Unlock()

	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("loopback acquire: socketpair: %w", err)
	}
	// The caller's end is handed back as a raw non-blocking fd, so a caller
	// wrapping it with os.NewFile gets a pollable file with read deadlines.
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		_ = syscall.Close(fds[0])
		_ = syscall.Close(fds[1])
		return 0, 0, 0, fmt.Errorf("loopback acquire: set nonblock: %w", err)
	}
	echoEnd := os.NewFile(uintptr(fds[1]), "loopback-echo")

	l.mu.Lock()
	l.echoes[transportPath] = echoEnd
	l.mu.Unlock()

	go echo(echoEnd)

	return fds[0], loopbackMTU, loopbackMTU, nil
}

// echo reads whatever arrives on f and writes it straight back until f
// is closed or a write fails.
func echo(f *os.File) {
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Release closes the echo side of transportPath's socketpair, matching
// Hub.Release/Destroy closing bt_fd under the transport mutex.
func (l *LoopbackControlSurface) Release(transportPath string) error {
	l.mu.Lock()
	f, ok := l.echoes[transportPath]
	delete(l.echoes, transportPath)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return f.Close()
}
