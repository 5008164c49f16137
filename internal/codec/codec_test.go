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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// supportedCodecs lists every codec id a real build would advertise, used to
// verify the canonicalization round trip (property 1 of the testable
// properties).
var supportedCodecs = []ID{ //nolint:gochecknoglobals
	SBC, MPEG12, AAC, LC3, CVSD, MSBC, LC3SWB,
	AptX, AptXHD, AptXLL, FastStream, LHDC, LC3plus,
}

func TestCodecIDRoundTrip(t *testing.T) {
	for _, id := range supportedCodecs {
		name := IDToString(id)
		require.NotEmpty(t, name, "id %#x has no canonical name", uint32(id))
		got := IDFromString(name)
		assert.Equal(t, id, got, "round trip for %s", name)

		// Canonicalization is idempotent.
		again := IDFromString(IDToString(got))
		assert.Equal(t, got, again)
	}
}

func TestCodecIDFromStringKnownAliases(t *testing.T) {
	assert.Equal(t, AptX, IDFromString("apt-x"))
	assert.Equal(t, AptX, IDFromString("aptX"))
	assert.Equal(t, AptX, IDFromString("APTX"))
}

func TestCodecIDFromStringUnknown(t *testing.T) {
	assert.Equal(t, UnknownID, IDFromString("nonexistent-codec"))
}

func TestCodecIDToStringUnknown(t *testing.T) {
	assert.Equal(t, "", IDToString(ID(0x7fffffff)))
}

func TestRegistryNewAndRegistered(t *testing.T) {
	const testID ID = ID(0x7e000001) | vendorFlag
	defer unregisterForTest(testID)

	assert.False(t, Registered(testID))
	Register(testID, func([]byte) (Codec, error) {
		return NewPassthrough(testID, 4), nil
	})
	assert.True(t, Registered(testID))

	c, err := New(testID, nil)
	require.NoError(t, err)
	assert.Equal(t, testID, c.ID())
}

func TestRegistryDoubleRegisterPanics(t *testing.T) {
	const testID ID = ID(0x7e000002) | vendorFlag
	defer unregisterForTest(testID)

	Register(testID, func([]byte) (Codec, error) { return NewPassthrough(testID, 4), nil })
	assert.Panics(t, func() {
		Register(testID, func([]byte) (Codec, error) { return NewPassthrough(testID, 4), nil })
	})
}

func TestRegistryNewUnregistered(t *testing.T) {
	_, err := New(ID(0x7e0000ff), nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestPassthroughEncodeDecodeQuantizes(t *testing.T) {
	p := NewPassthrough(SBC, 4)
	pcm := []byte{1, 2, 3, 4, 5, 6}
	encoded, consumed, err := p.Encode(nil, pcm)
	require.NoError(t, err)
	assert.Equal(t, 4, consumed)
	assert.Equal(t, []byte{1, 2, 3, 4}, encoded)

	decoded, consumed, err := p.Decode(nil, encoded)
	require.NoError(t, err)
	assert.Equal(t, 4, consumed)
	assert.Equal(t, []byte{1, 2, 3, 4}, decoded)
}
