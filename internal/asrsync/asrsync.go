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

// Package asrsync paces a streaming worker to the real-time playback clock.
// Deadlines are always computed from a fixed origin rather than
// incrementally from the previous deadline, so that wakeup jitter on any one
// call never accumulates into long-run drift.
package asrsync

import (
	"sync/atomic"
	"time"
)

// Sync paces a single direction of a single transport to its sample rate.
// It is safe for the worker goroutine that owns it to call Sync repeatedly;
// Stats may be read concurrently from a metrics collector.
type Sync struct {
	rate   uint32
	origin time.Time
	frames uint64

	busyUsec       atomic.Int64
	dmsSinceSync   atomic.Int64
	lastSyncWall   time.Time
}

// clock abstracts time.Now/time.Sleep for deterministic tests.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time      { return time.Now() }
func (realClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

var defaultClock clock = realClock{} //nolint:gochecknoglobals

// New creates a Sync for the given sample rate (Hz), anchored to the current
// time. Rate must be positive.
func New(rate uint32) *Sync {
	s := &Sync{rate: rate}
	s.Init(defaultClock.Now())
	return s
}

// Init (re-)anchors the sync to origin and resets the accumulated frame
// count. Called on stream start and on underrun resync ("origin reset" in
// the pacing contract).
func (s *Sync) Init(origin time.Time) {
	s.origin = origin
	s.frames = 0
	s.lastSyncWall = origin
	s.dmsSinceSync.Store(0)
}

// Sync reports that framesProcessed additional frames were produced since
// the last call (or since Init), and sleeps until the deadline implied by
// the origin, the cumulative frame count, and the sample rate.
func (s *Sync) Sync(framesProcessed uint32) {
	s.sync(framesProcessed, defaultClock)
}

func (s *Sync) sync(framesProcessed uint32, c clock) {
	now := c.Now()
	s.busyUsec.Store(now.Sub(s.lastSyncWall).Microseconds())

	s.frames += uint64(framesProcessed)
	deadline := s.origin.Add(time.Duration(s.frames) * time.Second / time.Duration(s.rate))

	sleep := deadline.Sub(now)
	if sleep < 0 {
		sleep = 0
	}
	c.Sleep(sleep)

	s.dmsSinceSync.Store(sleep.Milliseconds() * 10)
	s.lastSyncWall = c.Now()
}

// Stats returns the microseconds spent busy between the two most recent
// Sync calls, and the decimilliseconds slept on the most recent call — the
// latter seeds the initial client-delay estimate after the first write.
func (s *Sync) Stats() (busyUsec, dmsSinceLastSync int64) {
	return s.busyUsec.Load(), s.dmsSinceSync.Load()
}
