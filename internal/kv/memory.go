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

package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

type kvValue struct {
	values [][]byte
	ttl    time.Time // zero value means no expiry
}

func (v kvValue) expired() bool {
	return !v.ttl.IsZero() && v.ttl.Before(time.Now())
}

type memoryKV struct {
	m *xsync.Map[string, kvValue]
}

func newMemoryKV() KV {
	return &memoryKV{m: xsync.NewMap[string, kvValue]()}
}

func (kv *memoryKV) Has(_ context.Context, key string) (bool, error) {
	value, ok := kv.m.Load(key)
	if !ok {
		return false, nil
	}
	if value.expired() {
		kv.m.Delete(key)
		return false, nil
	}
	return true, nil
}

func (kv *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := kv.m.Load(key)
	if !ok {
		return nil, fmt.Errorf("key %s not found", key)
	}
	if value.expired() {
		kv.m.Delete(key)
		return nil, fmt.Errorf("key %s has expired", key)
	}
	if len(value.values) == 0 {
		return nil, fmt.Errorf("key %s has no values", key)
	}
	return value.values[0], nil
}

func (kv *memoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.m.Store(key, kvValue{values: [][]byte{value}})
	return nil
}

func (kv *memoryKV) Delete(_ context.Context, key string) error {
	kv.m.Delete(key)
	return nil
}

func (kv *memoryKV) Expire(_ context.Context, key string, ttl time.Duration) error {
	value, ok := kv.m.Load(key)
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	if ttl <= 0 {
		kv.m.Delete(key)
		return nil
	}
	value.ttl = time.Now().Add(ttl)
	kv.m.Store(key, value)
	return nil
}

func (kv *memoryKV) Scan(_ context.Context, _ uint64, match string, _ int64) ([]string, uint64, error) {
	keys := make([]string, 0)
	kv.m.Range(func(key string, value kvValue) bool {
		if value.expired() {
			kv.m.Delete(key)
			return true
		}
		if match == "" || matchPattern(match, key) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, 0, nil
}

func (kv *memoryKV) RPush(_ context.Context, key string, value []byte) (int64, error) {
	existing, _ := kv.m.Load(key)
	existing.values = append(existing.values, value)
	kv.m.Store(key, existing)
	return int64(len(existing.values)), nil
}

func (kv *memoryKV) LDrain(_ context.Context, key string) ([][]byte, error) {
	existing, ok := kv.m.LoadAndDelete(key)
	if !ok {
		return nil, nil
	}
	return existing.values, nil
}

func (kv *memoryKV) Close() error {
	return nil
}

// matchPattern supports the single "*" glob Scan callers rely on (a literal
// prefix followed by a trailing wildcard), matching Redis SCAN's MATCH
// semantics closely enough for this daemon's fixed key layouts.
func matchPattern(pattern, key string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == key
	}
	prefix := strings.TrimSuffix(pattern, "*")
	return strings.HasPrefix(key, prefix)
}
