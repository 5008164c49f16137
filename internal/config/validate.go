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

import "errors"

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidMetricsBindAddress indicates that the metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the pprof server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
	// ErrInvalidStatusBindAddress indicates that the status API bind address is not valid.
	ErrInvalidStatusBindAddress = errors.New("invalid status API bind address provided")
	// ErrInvalidStatusPort indicates that the status API port is not valid.
	ErrInvalidStatusPort = errors.New("invalid status API port provided")
	// ErrInvalidStoreBackend indicates that the store backend is not one of the recognized values.
	ErrInvalidStoreBackend = errors.New("invalid store backend provided")
	// ErrInvalidEventBusBackend indicates that the event bus backend is not one of the recognized values.
	ErrInvalidEventBusBackend = errors.New("invalid event bus backend provided")
	// ErrInvalidRedisHost indicates that a Redis-backed component is missing a host.
	ErrInvalidRedisHost = errors.New("invalid Redis host provided")
	// ErrInvalidRedisPort indicates that a Redis-backed component has an out-of-range port.
	ErrInvalidRedisPort = errors.New("invalid Redis port provided")
	// ErrInvalidHistoryDSN indicates that history is enabled but no DSN was provided.
	ErrInvalidHistoryDSN = errors.New("history is enabled but no DSN was provided")
	// ErrInvalidHFPTimeoutAck indicates that the HFP acknowledgement timeout is not positive.
	ErrInvalidHFPTimeoutAck = errors.New("HFP timeout_ack must be positive")
	// ErrInvalidHFPTimeoutIdle indicates that the HFP idle timeout is not positive.
	ErrInvalidHFPTimeoutIdle = errors.New("HFP timeout_idle must be positive")
	// ErrInvalidHFPSLCRetries indicates that the HFP SLC retry budget is not positive.
	ErrInvalidHFPSLCRetries = errors.New("HFP slc_retries must be positive")
	// ErrInvalidSBCQuality indicates that the policy's SBC quality preset is not recognized.
	ErrInvalidSBCQuality = errors.New("invalid sbc_quality policy provided")
)

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the Status configuration.
func (s Status) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Bind == "" {
		return ErrInvalidStatusBindAddress
	}
	if s.Port <= 0 || s.Port > 65535 {
		return ErrInvalidStatusPort
	}
	return nil
}

// Validate validates the Store configuration.
func (s Store) Validate() error {
	switch s.Backend {
	case StoreBackendMemory:
		return nil
	case StoreBackendRedis:
		return s.Redis.Validate()
	default:
		return ErrInvalidStoreBackend
	}
}

// Validate validates the EventBus configuration.
func (e EventBus) Validate() error {
	switch e.Backend {
	case EventBusBackendMemory:
		return nil
	case EventBusBackendRedis:
		return e.Redis.Validate()
	default:
		return ErrInvalidEventBusBackend
	}
}

// Validate validates the History configuration.
func (h History) Validate() error {
	if !h.Enabled {
		return nil
	}
	if h.DSN == "" {
		return ErrInvalidHistoryDSN
	}
	return nil
}

// Validate validates the HFP configuration.
func (h HFP) Validate() error {
	if h.TimeoutAck <= 0 {
		return ErrInvalidHFPTimeoutAck
	}
	if h.TimeoutIdle <= 0 {
		return ErrInvalidHFPTimeoutIdle
	}
	if h.SLCRetries <= 0 {
		return ErrInvalidHFPSLCRetries
	}
	return nil
}

// Validate validates the Policy configuration.
func (p Policy) Validate() error {
	if p.SBCQuality != SBCQualityPresetHigh && p.SBCQuality != SBCQualityPresetXQ {
		return ErrInvalidSBCQuality
	}
	return nil
}

// Validate validates the full configuration, checking every section and the
// top-level fields.
func (c Config) Validate() error {
	if c.LogLevel != LogLevelDebug &&
		c.LogLevel != LogLevelInfo &&
		c.LogLevel != LogLevelWarn &&
		c.LogLevel != LogLevelError {
		return ErrInvalidLogLevel
	}

	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.EventBus.Validate(); err != nil {
		return err
	}
	if err := c.History.Validate(); err != nil {
		return err
	}
	if err := c.HFP.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}

	return nil
}
