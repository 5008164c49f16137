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

// Package transport is the transport object graph: Adapter, Device,
// Transport and PCM entities held in a generation-checked, id-indexed
// arena rather than as reference-counted pointers, so a dangling handle
// looked up after destruction fails instead of silently aliasing whatever
// entity was later allocated at the same slot.
package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ErrNotFound is returned when a Handle does not resolve to a live entry,
// either because it was never valid or because the entry it once named has
// since been destroyed.
var ErrNotFound = errors.New("transport: handle not found")

// Handle names one arena slot and the generation it was allocated at. A
// Handle copied out before Remove and used after it compares unequal to
// any handle a later Insert into the same slot would produce.
type Handle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h has a non-zero index. Arena indices are
// 1-based, so the zero Handle is never returned by Insert and Valid can
// use it as a reliable "no handle" sentinel.
func (h Handle) Valid() bool {
	return h.index != 0
}

// String renders h as "index.generation", stable across process restarts
// only for the lifetime of the arena that issued it. The status API uses
// this as the entity id it exposes over HTTP.
func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.index, h.generation)
}

// ErrInvalidHandle is returned by ParseHandle when id is not a handle
// string a Handle.String call could have produced.
var ErrInvalidHandle = errors.New("transport: invalid handle string")

// ParseHandle parses the "index.generation" form Handle.String produces.
// It does not verify the handle resolves to a live entry; callers still
// need Arena.Get for that.
func ParseHandle(id string) (Handle, error) {
	idxStr, genStr, ok := strings.Cut(id, ".")
	if !ok {
		return Handle{}, ErrInvalidHandle
	}
	idx, err := strconv.ParseUint(idxStr, 10, 32)
	if err != nil {
		return Handle{}, ErrInvalidHandle
	}
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil {
		return Handle{}, ErrInvalidHandle
	}
	return Handle{index: uint32(idx), generation: uint32(gen)}, nil
}

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// Arena is a generic, id-indexed, generation-checked registry. It backs
// every entity in the transport object graph: back-edges between entities
// are stored as Handles, not pointers, so there is no reference-cycle risk
// between e.g. device and transport.
type Arena[T any] struct {
	mu       sync.RWMutex
	slots    []slot[T]
	freeList []uint32
}

// NewArena constructs an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert allocates a new slot (reusing a freed one if available) and
// returns its Handle. Handle indices are 1-based internally so the zero
// Handle is never produced by Insert and Valid can rely on it.
func (a *Arena[T]) Insert(value T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.slots[idx].value = value
		a.slots[idx].occupied = true
		return Handle{index: idx + 1, generation: a.slots[idx].generation}
	}

	a.slots = append(a.slots, slot[T]{value: value, occupied: true})
	return Handle{index: uint32(len(a.slots))}
}

// Get returns the value at h, or ErrNotFound if h is stale or was never
// valid.
func (a *Arena[T]) Get(h Handle) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var zero T
	if h.index == 0 || int(h.index) > len(a.slots) {
		return zero, ErrNotFound
	}
	s := &a.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return zero, ErrNotFound
	}
	return s.value, nil
}

// Update applies fn to the value at h in place. Returns ErrNotFound under
// the same conditions as Get.
func (a *Arena[T]) Update(h Handle, fn func(*T)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.index == 0 || int(h.index) > len(a.slots) {
		return ErrNotFound
	}
	s := &a.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return ErrNotFound
	}
	fn(&s.value)
	return nil
}

// Remove destroys the entry at h, bumping its slot's generation so any
// other outstanding Handle into that slot becomes stale. Removing an
// already-stale or unknown Handle returns ErrNotFound.
func (a *Arena[T]) Remove(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if h.index == 0 || int(h.index) > len(a.slots) {
		return ErrNotFound
	}
	s := &a.slots[h.index-1]
	if !s.occupied || s.generation != h.generation {
		return ErrNotFound
	}
	var zero T
	s.value = zero
	s.occupied = false
	s.generation++
	a.freeList = append(a.freeList, h.index-1)
	return nil
}

// Range calls fn for every live entry. Iteration stops early if fn returns
// false. fn must not call back into the same Arena.
func (a *Arena[T]) Range(fn func(Handle, T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i := range a.slots {
		s := &a.slots[i]
		if !s.occupied {
			continue
		}
		if !fn(Handle{index: uint32(i + 1), generation: s.generation}, s.value) {
			return
		}
	}
}

// Len reports the number of live entries.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots) - len(a.freeList)
}
