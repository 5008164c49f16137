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

package history

import (
	"context"
	"fmt"

	"github.com/btaudio/btaudiod/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// History records and queries ConnectionEvents.
type History interface {
	Record(ctx context.Context, event ConnectionEvent) error
	Recent(ctx context.Context, limit int) ([]ConnectionEvent, error)
	Close() error
}

// MakeHistory opens the sqlite-backed history log, or returns a no-op
// implementation when cfg.Enabled is false so callers never need to
// branch on whether history is turned on. otlpEndpoint enables gorm query
// tracing when non-empty, mirroring internal/tracing's own OTLP gate.
func MakeHistory(cfg config.History, otlpEndpoint string) (History, error) {
	if !cfg.Enabled {
		return noopHistory{}, nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if otlpEndpoint != "" {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			return nil, fmt.Errorf("failed to trace history database: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &gormHistory{db: db}, nil
}

type gormHistory struct {
	db *gorm.DB
}

func (h *gormHistory) Record(ctx context.Context, event ConnectionEvent) error {
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record history event: %w", err)
	}
	return nil
}

func (h *gormHistory) Recent(ctx context.Context, limit int) ([]ConnectionEvent, error) {
	var events []ConnectionEvent
	err := h.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return events, nil
}

func (h *gormHistory) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}

type noopHistory struct{}

func (noopHistory) Record(context.Context, ConnectionEvent) error        { return nil }
func (noopHistory) Recent(context.Context, int) ([]ConnectionEvent, error) { return nil, nil }
func (noopHistory) Close() error                                          { return nil }
