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

package config

import "time"

// Config stores the daemon's configuration. It is loaded once at startup by
// configulator, validated, and then passed by reference to every
// collaborator — there is no global singleton or mutable package state.
type Config struct {
	LogLevel LogLevel `mapstructure:"log_level" yaml:"log_level"`
	Loopback bool     `mapstructure:"loopback" yaml:"loopback"`

	Metrics  Metrics  `mapstructure:"metrics" yaml:"metrics"`
	PProf    PProf    `mapstructure:"pprof" yaml:"pprof"`
	Status   Status   `mapstructure:"status" yaml:"status"`
	Store    Store    `mapstructure:"store" yaml:"store"`
	EventBus EventBus `mapstructure:"event_bus" yaml:"event_bus"`
	History  History  `mapstructure:"history" yaml:"history"`
	HFP      HFP      `mapstructure:"hfp" yaml:"hfp"`
	Codecs   Codecs   `mapstructure:"codecs" yaml:"codecs"`
	Policy   Policy   `mapstructure:"policy" yaml:"policy"`
}

// Redis holds the connection settings shared by any backend that persists
// through Redis (Store, EventBus).
type Redis struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Password string `mapstructure:"password" yaml:"password"`
}

// Metrics configures the Prometheus metrics HTTP server.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Bind    string `mapstructure:"bind" yaml:"bind"`
	Port    int    `mapstructure:"port" yaml:"port"`
	// OTLPEndpoint, when non-empty, enables the OpenTelemetry tracer
	// provider and points its OTLP/gRPC exporter at this address.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// PProf configures the optional net/http/pprof debug server.
type PProf struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Bind    string `mapstructure:"bind" yaml:"bind"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// Status configures the read-only diagnostics HTTP+WebSocket API. It is off
// by default: it is an operational side-channel, not the control surface.
type Status struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Bind    string `mapstructure:"bind" yaml:"bind"`
	Port    int    `mapstructure:"port" yaml:"port"`
	// CORSHosts lists the origins allowed to call the status API from a
	// browser. Empty means no cross-origin access at all.
	CORSHosts []string `mapstructure:"cors_hosts" yaml:"cors_hosts"`
	// OpenBrowser launches the host's default browser at the status API
	// once it starts listening, for local development.
	OpenBrowser bool `mapstructure:"open_browser" yaml:"open_browser"`
}

// Store configures where per-device persisted state (volume, mute,
// soft-volume, client delays) is kept.
type Store struct {
	Backend StoreBackend `mapstructure:"backend" yaml:"backend"`
	Redis   Redis        `mapstructure:"redis" yaml:"redis"`
}

// EventBus configures the publish/subscribe bus carrying property-changed
// events from the transport graph out to the status API and control-surface
// glue.
type EventBus struct {
	Backend EventBusBackend `mapstructure:"backend" yaml:"backend"`
	Redis   Redis           `mapstructure:"redis" yaml:"redis"`
}

// History configures the SQLite-backed device/codec-selection log.
type History struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// HFP holds the RFCOMM SLC timeout and retry settings, checked by Validate.
// internal/hfp's SLC does not read them: it uses its own TimeoutAck,
// TimeoutIdle and DefaultSLCRetries constants.
type HFP struct {
	TimeoutAck  time.Duration `mapstructure:"timeout_ack" yaml:"timeout_ack"`
	TimeoutIdle time.Duration `mapstructure:"timeout_idle" yaml:"timeout_idle"`
	SLCRetries  int           `mapstructure:"slc_retries" yaml:"slc_retries"`
}

// Codecs gates optional A2DP codecs whose availability depends on licensing
// or runtime library support rather than the annex itself.
type Codecs struct {
	EnableLC3plus bool `mapstructure:"enable_lc3plus" yaml:"enable_lc3plus"`
	EnableLHDC    bool `mapstructure:"enable_lhdc" yaml:"enable_lhdc"`
}

// Policy configures the A2DP capability engine's selection preferences.
type Policy struct {
	ForceMono  bool             `mapstructure:"force_mono" yaml:"force_mono"`
	Force44100 bool             `mapstructure:"force_44100" yaml:"force_44100"`
	SBCQuality SBCQualityPreset `mapstructure:"sbc_quality" yaml:"sbc_quality"`
}

// Default returns a Config populated with the daemon's default settings. It
// is used as the starting point before configulator layers environment
// variables and an optional YAML file on top, and directly by tests.
func Default() Config {
	return Config{
		LogLevel: LogLevelInfo,
		Metrics: Metrics{
			Enabled: true,
			Bind:    "127.0.0.1",
			Port:    9200,
		},
		PProf: PProf{
			Bind: "127.0.0.1",
			Port: 9201,
		},
		Status: Status{
			Bind: "127.0.0.1",
			Port: 9202,
		},
		Store: Store{
			Backend: StoreBackendMemory,
		},
		EventBus: EventBus{
			Backend: EventBusBackendMemory,
		},
		History: History{
			Enabled: true,
			DSN:     "btaudiod.sqlite",
		},
		HFP: HFP{
			TimeoutAck:  time.Second,
			TimeoutIdle: 2500 * time.Millisecond,
			SLCRetries:  3,
		},
		Policy: Policy{
			SBCQuality: SBCQualityPresetHigh,
		},
	}
}
