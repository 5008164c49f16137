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

package codec

import (
	"fmt"
	"sync"
)

// Codec presents a uniform frame-to-frame contract over a third-party
// encode/decode library. Implementations bind a specific library (SBC, AAC,
// aptX, mSBC, LC3, MPEG) behind this interface; none of those libraries are
// part of this repository.
type Codec interface {
	// ID returns the codec this instance was constructed for.
	ID() ID
	// PCMFrameSize returns how many bytes of PCM one codec frame consumes.
	PCMFrameSize() int
	// EncodedFrameSize returns the byte size of one encoded codec frame, or
	// 0 if the codec produces variable-size frames.
	EncodedFrameSize() int
	// Encode consumes whole PCM frames from the front of pcm and appends
	// their encoded codec frames to dst. It returns the updated dst slice
	// and the number of PCM bytes consumed (a multiple of PCMFrameSize).
	Encode(dst, pcm []byte) ([]byte, int, error)
	// Decode consumes whole encoded codec frames from the front of frames
	// and appends their decoded PCM to dst. It returns the updated dst
	// slice and the number of frame bytes consumed.
	Decode(dst, frames []byte) ([]byte, int, error)
	// Close releases any resources (library handles, scratch buffers) held
	// by the codec instance.
	Close() error
}

// Factory constructs a Codec instance bound to a specific, already-selected
// configuration blob.
type Factory func(configuration []byte) (Codec, error)

var (
	registryMu sync.RWMutex
	registry   = map[ID]Factory{} //nolint:gochecknoglobals
)

// Register adds factory to the registry under id. It is typically called
// from an init function in the package that binds a specific codec library.
// Registering the same id twice panics, since that indicates two codec
// bindings were compiled in for the same id.
func Register(id ID, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[id]; exists {
		panic(fmt.Sprintf("codec: %s already registered", id))
	}
	registry[id] = factory
}

// New constructs a Codec for id using its registered factory. It returns
// ErrNotRegistered if no factory was registered for id — the daemon's
// CodecNotSupported error kind wraps this one level up, once capability
// negotiation is also consulted.
func New(id ID, configuration []byte) (Codec, error) {
	registryMu.RLock()
	factory, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, ErrNotRegistered
	}
	return factory(configuration)
}

// Registered reports whether id has a registered factory, used by the A2DP
// capability engine to decide whether a codec should be advertised at all.
func Registered(id ID) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[id]
	return ok
}

// unregisterForTest removes id's factory. Exported only to _test.go files in
// this package via the lowercase name; production code never unregisters a
// codec once bound.
func unregisterForTest(id ID) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, id)
}
