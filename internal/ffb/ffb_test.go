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

package ffb_test

import (
	"testing"

	"github.com/btaudio/btaudiod/internal/ffb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSeekShift(t *testing.T) {
	b := ffb.New(16)
	defer b.Release()

	assert.Equal(t, 16, b.LenIn())
	assert.Equal(t, 0, b.LenOut())

	n := copy(b.Tail(), []byte{1, 2, 3, 4})
	b.Seek(n)
	assert.Equal(t, 4, b.LenOut())
	assert.Equal(t, 12, b.LenIn())

	b.Shift(2)
	require.Equal(t, 2, b.LenOut())
	assert.Equal(t, []byte{3, 4}, b.Head())
	assert.Equal(t, 14, b.LenIn())
}

func TestBufferRewind(t *testing.T) {
	b := ffb.New(8)
	defer b.Release()

	b.Seek(copy(b.Tail(), []byte{9, 9, 9}))
	b.Rewind()
	assert.Equal(t, 0, b.LenOut())
	assert.Equal(t, 8, b.LenIn())
}

func TestBufferSeekPastCapacityPanics(t *testing.T) {
	b := ffb.New(4)
	defer b.Release()
	assert.Panics(t, func() { b.Seek(5) })
}

func TestBufferShiftPastTailPanics(t *testing.T) {
	b := ffb.New(4)
	defer b.Release()
	b.Seek(1)
	assert.Panics(t, func() { b.Shift(2) })
}

func TestTypedViewMatchesByteView(t *testing.T) {
	b := ffb.New(20)
	defer b.Release()
	b.Seek(copy(b.Tail(), make([]byte, 6)))

	typed := ffb.Typed(b, 2)
	assert.Equal(t, b.LenOut(), typed.BLenOut())
	assert.Equal(t, b.LenIn(), typed.BLenIn())
	assert.Equal(t, 3, typed.LenOut())
	assert.Equal(t, 7, typed.LenIn())
}
