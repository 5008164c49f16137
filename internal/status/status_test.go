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

package status_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	transport "github.com/btaudio/btaudiod/internal/btaudio"
	"github.com/btaudio/btaudiod/internal/config"
	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/history"
	"github.com/btaudio/btaudiod/internal/status"
	gorillaWebsocket "github.com/gorilla/websocket"
)

func newTestHub(t *testing.T) (*transport.Hub, transport.Handle, transport.Handle, transport.Handle) {
	t.Helper()
	hub := transport.NewHub()
	adapter := hub.CreateAdapter("hci0", "AA:BB:CC:DD:EE:FF", true)
	device, err := hub.CreateDevice(adapter, "11:22:33:44:55:66", "headset")
	if err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
	tr, err := hub.CreateTransport(device, transport.ProfileA2DPSink)
	if err != nil {
		t.Fatalf("CreateTransport: %v", err)
	}
	return hub, adapter, device, tr
}

func newTestHistory(t *testing.T) history.History {
	t.Helper()
	hist, err := history.MakeHistory(config.History{Enabled: false}, "")
	if err != nil {
		t.Fatalf("MakeHistory: %v", err)
	}
	return hist
}

func TestGetAdaptersDevicesTransportsListLiveEntities(t *testing.T) {
	t.Parallel()

	hub, adapter, device, tr := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	for _, tc := range []struct {
		path string
		id   string
	}{
		{"/api/v1/adapters/" + adapter.String(), adapter.String()},
		{"/api/v1/devices/" + device.String(), device.String()},
		{"/api/v1/transports/" + tr.String(), tr.String()},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d, body = %s", tc.path, rec.Code, rec.Body.String())
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s: decode: %v", tc.path, err)
		}
		if body["id"] != tc.id {
			t.Errorf("GET %s: id = %v, want %v", tc.path, body["id"], tc.id)
		}
	}
}

func TestGetTransportUnknownIDReturnsNotFound(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transports/999.0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetTransportMalformedIDReturnsBadRequest(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transports/not-a-handle", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSnapshotIncludesEveryArena(t *testing.T) {
	t.Parallel()

	hub, adapter, device, tr := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var snap struct {
		Adapters   []map[string]any `json:"adapters"`
		Devices    []map[string]any `json:"devices"`
		Transports []map[string]any `json:"transports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Adapters) != 1 || snap.Adapters[0]["id"] != adapter.String() {
		t.Errorf("adapters = %+v", snap.Adapters)
	}
	if len(snap.Devices) != 1 || snap.Devices[0]["id"] != device.String() {
		t.Errorf("devices = %+v", snap.Devices)
	}
	if len(snap.Transports) != 1 || snap.Transports[0]["id"] != tr.String() {
		t.Errorf("transports = %+v", snap.Transports)
	}
}

func TestGetHistoryRejectsNonPositiveLimit(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?limit=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestEventsWebsocketStreamsPublishedPayloads drives a real HTTP server so
// gorilla's websocket.Dialer can upgrade the connection, then verifies a
// property-changed event published after the socket is open arrives
// byte-for-byte on the client end.
func TestEventsWebsocketStreamsPublishedPayloads(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, resp, err := gorillaWebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// Give the handler's Subscribe call a moment to land before publishing,
	// since the bus fans out to subscribers present at publish time only.
	time.Sleep(50 * time.Millisecond)

	if err := bus.PublishProperty(context.Background(), eventbus.PropertyChanged{
		EntityKind: "device",
		EntityID:   1,
		Property:   "volume",
		Value:      42,
	}); err != nil {
		t.Fatalf("PublishProperty: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	event, err := eventbus.DecodeProperty(payload)
	if err != nil {
		t.Fatalf("DecodeProperty: %v", err)
	}
	if event.Property != "volume" {
		t.Errorf("property = %q, want volume", event.Property)
	}
}

func TestGetEventsWebsocketRejectsUnknownTopic(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	router := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)

	req := httptest.NewRequest(http.MethodGet, "/ws/events?topic=not.a.topic", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestNewRouterMountsPProfOnlyWhenEnabled(t *testing.T) {
	t.Parallel()

	hub, _, _, _ := newTestHub(t)
	bus, err := eventbus.MakeEventBus(context.Background(), config.Redis{})
	if err != nil {
		t.Fatalf("MakeEventBus: %v", err)
	}
	defer bus.Close()

	disabled := status.NewRouter(&config.Config{}, hub, newTestHistory(t), bus)
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Error("expected /debug/pprof/ to be unmounted when PProf.Enabled is false")
	}

	enabled := status.NewRouter(&config.Config{PProf: config.PProf{Enabled: true}}, hub, newTestHistory(t), bus)
	rec = httptest.NewRecorder()
	enabled.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected /debug/pprof/ to be mounted when PProf.Enabled is true, got status %d", rec.Code)
	}
}
