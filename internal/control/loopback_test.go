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

package control_test

import (
	"context"
	"os"
	"testing"
	"time"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/btaudio/btaudiod/internal/control"
)

func TestLoopbackControlSurfaceDrivesFullTransportLifecycle(t *testing.T) {
	t.Parallel()

	hub := transport.NewHub()
	surface := control.NewLoopbackControlSurface(hub)

	th, path, err := surface.ConnectDevice("AA:BB:CC:DD:EE:FF", transport.ProfileA2DPSource)
	if err != nil {
		t.Fatalf("ConnectDevice: %v", err)
	}

	if err := hub.Pend(th); err != nil {
		t.Fatalf("Pend: %v", err)
	}

	ctx := context.Background()
	err = hub.Acquire(ctx, th, func(ctx context.Context) (int, int, int, error) {
		return surface.Acquire(ctx, path)
	})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	tr, err := hub.Transports.Get(th)
	if err != nil {
		t.Fatalf("get transport: %v", err)
	}
	if tr.State != transport.StateActive {
		t.Fatalf("expected state active, got %v", tr.State)
	}

	f := os.NewFile(uintptr(tr.BTFD), "caller")
	defer f.Close()

	want := []byte("hello bluetooth")
	if _, err := f.Write(want); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := f.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	got := make([]byte, len(want))
	if _, err := f.Read(got); err != nil {
		t.Fatalf("read echoed bytes: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("echoed bytes = %q, want %q", got, want)
	}

	if err := surface.Release(path); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := hub.Destroy(th); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
}

func TestLoopbackAcquireUnknownTransportFails(t *testing.T) {
	t.Parallel()

	hub := transport.NewHub()
	surface := control.NewLoopbackControlSurface(hub)

	if _, _, _, err := surface.Acquire(context.Background(), "/loopback/transport999"); err == nil {
		t.Error("expected Acquire on an unregistered transport path to fail")
	}
}
