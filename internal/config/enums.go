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

// LogLevel represents the logging level for the daemon.
type LogLevel string

const (
	// LogLevelDebug is the debug logging level, providing detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the informational logging level, providing general information.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is the warning logging level, indicating potential issues.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is the error logging level, indicating serious issues.
	LogLevelError LogLevel = "error"
)

// StoreBackend selects where per-device persisted state (volume, mute,
// soft-volume, client delays) lives.
type StoreBackend string

const (
	// StoreBackendMemory keeps device state in-process only; it does not
	// survive a restart.
	StoreBackendMemory StoreBackend = "memory"
	// StoreBackendRedis persists device state to Redis.
	StoreBackendRedis StoreBackend = "redis"
)

// EventBusBackend selects the transport the publish/subscribe bus runs on.
type EventBusBackend string

const (
	// EventBusBackendMemory fans events out in-process only.
	EventBusBackendMemory EventBusBackend = "memory"
	// EventBusBackendRedis fans events out over Redis pub/sub, letting
	// multiple btaudiod processes share a status view.
	EventBusBackendRedis EventBusBackend = "redis"
)

// SBCQualityPreset selects the operator's preferred SBC encoding quality.
type SBCQualityPreset string

const (
	// SBCQualityPresetHigh is the standard A2DP SBC high-quality preset.
	SBCQualityPresetHigh SBCQualityPreset = "high"
	// SBCQualityPresetXQ is the SBC-XQ extension (dual-channel, 16 blocks,
	// loudness allocation) selected only when the peer supports it.
	SBCQualityPresetXQ SBCQualityPreset = "xq"
)
