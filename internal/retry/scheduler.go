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

package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// PeriodicScheduler runs recurring background jobs, namely the store's
// periodic flush. It wraps gocron so job management (start/stop,
// duplicate-job replacement) follows one convention across the daemon.
type PeriodicScheduler struct {
	scheduler gocron.Scheduler
}

// NewPeriodicScheduler constructs an idle scheduler; call Start to begin
// running registered jobs.
func NewPeriodicScheduler() (*PeriodicScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &PeriodicScheduler{scheduler: s}, nil
}

// Every registers task to run once per interval, invoked with a background
// context. The returned job handle can be ignored by callers that only
// ever run one instance of a given periodic task.
func (s *PeriodicScheduler) Every(interval time.Duration, task func(ctx context.Context)) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task, context.Background()),
	)
	if err != nil {
		return fmt.Errorf("failed to register periodic job: %w", err)
	}
	return nil
}

// Start begins running registered jobs on their schedule.
func (s *PeriodicScheduler) Start() {
	s.scheduler.Start()
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *PeriodicScheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	return nil
}
