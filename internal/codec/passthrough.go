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

// Passthrough is a no-op Codec that copies PCM straight through as its own
// "encoded" form, quantized to a fixed frame size. It stands in for a real
// SBC/AAC/aptX binding in tests and in the loopback control surface, which
// exercises the full transport lifecycle without real Bluetooth hardware or
// a real codec library.
type Passthrough struct {
	id        ID
	frameSize int
}

// NewPassthrough builds a Passthrough codec quantized to frameSize PCM bytes
// per "encoded" frame. frameSize must be positive.
func NewPassthrough(id ID, frameSize int) *Passthrough {
	if frameSize <= 0 {
		frameSize = 1
	}
	return &Passthrough{id: id, frameSize: frameSize}
}

// ID implements Codec.
func (p *Passthrough) ID() ID { return p.id }

// PCMFrameSize implements Codec.
func (p *Passthrough) PCMFrameSize() int { return p.frameSize }

// EncodedFrameSize implements Codec.
func (p *Passthrough) EncodedFrameSize() int { return p.frameSize }

// Encode implements Codec by copying whole frameSize chunks of pcm to dst
// unchanged.
func (p *Passthrough) Encode(dst, pcm []byte) ([]byte, int, error) {
	n := (len(pcm) / p.frameSize) * p.frameSize
	return append(dst, pcm[:n]...), n, nil
}

// Decode implements Codec by copying whole frameSize chunks of frames to dst
// unchanged.
func (p *Passthrough) Decode(dst, frames []byte) ([]byte, int, error) {
	n := (len(frames) / p.frameSize) * p.frameSize
	return append(dst, frames[:n]...), n, nil
}

// Close implements Codec; Passthrough holds no resources.
func (p *Passthrough) Close() error { return nil }

// RegisterPassthroughs installs a Passthrough factory for every id in ids,
// used by the --loopback daemon mode and by package-level tests that need a
// working codec without a real library binding. Calling this more than once
// for the same id panics, matching Register's semantics.
func RegisterPassthroughs(frameSize int, ids ...ID) {
	for _, id := range ids {
		capturedID := id
		Register(capturedID, func([]byte) (Codec, error) {
			return NewPassthrough(capturedID, frameSize), nil
		})
	}
}
