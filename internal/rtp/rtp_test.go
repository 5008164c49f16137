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

package rtp_test

import (
	"testing"

	"github.com/btaudio/btaudiod/internal/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderMarshalUnmarshalRoundTrip(t *testing.T) {
	h := rtp.Header{
		Version:     rtp.DefaultVersion,
		Marker:      true,
		PayloadType: 96,
		Sequence:    4242,
		Timestamp:   0xDEADBEEF,
		SSRC:        0x12345678,
	}
	buf := make([]byte, rtp.HeaderSize)
	n := h.Marshal(buf)
	require.Equal(t, rtp.HeaderSize, n)

	got, err := rtp.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestUnmarshalShortPacket(t *testing.T) {
	_, err := rtp.Unmarshal(make([]byte, 4))
	assert.ErrorIs(t, err, rtp.ErrShortPacket)
}

func TestEncoderStateAdvances(t *testing.T) {
	e := rtp.NewEncoderState(96, 0x1, 16000, 16000)
	h1 := e.NewFrame(false)
	e.Update(128)
	h2 := e.NewFrame(true)

	assert.Equal(t, h1.Sequence+1, h2.Sequence)
	assert.Equal(t, uint32(128), h2.Timestamp)
	assert.True(t, h2.Marker)
	assert.False(t, h1.Marker)
}

// TestDecoderResync verifies the gap-detection property from the sequence
// {100, 101, 103, 102, 104}: missing = 0, 0, 1, dropped, 0; 4 frames
// delivered.
func TestDecoderResync(t *testing.T) {
	d := rtp.NewDecoderState(96)
	seqs := []uint16{100, 101, 103, 102, 104}

	var delivered int
	var missing []uint32
	var dropped []bool
	for _, seq := range seqs {
		res := d.SyncStream(rtp.Header{Sequence: seq})
		if !res.Dropped {
			delivered++
		}
		missing = append(missing, res.Missing)
		dropped = append(dropped, res.Dropped)
	}

	assert.Equal(t, []uint32{0, 0, 1, 0, 0}, missing)
	assert.Equal(t, []bool{false, false, false, true, false}, dropped)
	assert.Equal(t, 4, delivered)
}

func TestGetPayloadUnknownType(t *testing.T) {
	d := rtp.NewDecoderState(96)
	h := rtp.Header{PayloadType: 97}
	_, err := d.GetPayload(make([]byte, 12), h)
	assert.ErrorIs(t, err, rtp.ErrUnknownPayloadType)
}

func TestGetPayloadSkipsCSRCs(t *testing.T) {
	d := rtp.NewDecoderState(96)
	h := rtp.Header{PayloadType: 96, CSRCCount: 1}
	data := make([]byte, rtp.HeaderSize+4+3)
	data[rtp.HeaderSize+4] = 0xAB
	payload, err := d.GetPayload(data, h)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), payload[0])
}
