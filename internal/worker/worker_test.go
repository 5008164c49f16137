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

package worker_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/btaudio/btaudiod/internal/ffb"
	"github.com/btaudio/btaudiod/internal/worker"
)

// passthroughCodec treats every 4 PCM bytes as one codec frame, copying
// them unmodified — enough to exercise the worker's fragmentation and
// pacing logic without a real bitstream codec.
type passthroughCodec struct{}

const frameBytes = 4

func (passthroughCodec) Encode(pcm []byte, out *ffb.Buffer) (int, error) {
	if len(pcm) < frameBytes {
		return 0, nil
	}
	if out.LenIn() < frameBytes {
		return 0, nil
	}
	copy(out.Tail(), pcm[:frameBytes])
	out.Seek(frameBytes)
	return frameBytes, nil
}

func (passthroughCodec) Decode(frame []byte, out *ffb.Buffer) error {
	n := len(frame)
	if out.LenIn() < n {
		n = out.LenIn()
	}
	copy(out.Tail(), frame[:n])
	out.Seek(n)
	return nil
}

func (passthroughCodec) FrameDuration() uint32 { return 1 }

// memPipe is a minimal concurrency-safe io.ReadWriter backed by a byte
// buffer, standing in for a client FIFO or Bluetooth socket fd in tests.
// It implements SetReadDeadline by polling, exercising the same
// cooperative-cancellation path a real *os.File or net.Conn gives the
// worker loop. Close unblocks a pending Read by returning io.EOF.
type memPipe struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	closed   bool
	deadline time.Time
}

func newMemPipe() *memPipe {
	return &memPipe{}
}

func (p *memPipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Write(b)
}

func (p *memPipe) SetReadDeadline(t time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deadline = t
	return nil
}

// memPipeTimeout reports Timeout() true, matching the shape worker.go's
// isTimeout check expects from a real deadline exceeded error.
type memPipeTimeout struct{}

func (memPipeTimeout) Error() string { return "memPipe: i/o timeout" }
func (memPipeTimeout) Timeout() bool { return true }

const pollStep = 5 * time.Millisecond

func (p *memPipe) Read(b []byte) (int, error) {
	for {
		p.mu.Lock()
		if p.buf.Len() > 0 {
			n, err := p.buf.Read(b)
			p.mu.Unlock()
			return n, err
		}
		if p.closed {
			p.mu.Unlock()
			return 0, io.EOF
		}
		deadline := p.deadline
		p.mu.Unlock()

		if !deadline.IsZero() && time.Now().After(deadline) {
			return 0, memPipeTimeout{}
		}
		time.Sleep(pollStep)
	}
}

func (p *memPipe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func TestWorkerEncodeRoundTripsPCMToRTPPackets(t *testing.T) {
	t.Parallel()

	clientFIFO := newMemPipe()
	btSocket := newMemPipe()
	defer clientFIFO.Close()
	defer btSocket.Close()

	signal := make(chan worker.Signal, 1)
	cfg := worker.Config{
		Direction:   worker.DirectionEncode,
		Codec:       passthroughCodec{},
		PayloadType: 96,
		SSRC:        1,
		ClockRate:   44100,
		PCMRate:     44100,
		MTU:         128,
		ClientFIFO:  clientFIFO,
		BTSocket:    btSocket,
		Signal:      signal,
	}
	w := worker.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if _, err := clientFIFO.Write(pcm); err != nil {
		t.Fatalf("write pcm: %v", err)
	}

	packet := make([]byte, 64)
	n, err := readWithTimeout(btSocket, packet, 2*time.Second)
	if err != nil {
		t.Fatalf("read rtp packet: %v", err)
	}
	if n < 12+frameBytes {
		t.Fatalf("packet too short: %d bytes", n)
	}
	if got := packet[12:16]; !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("expected first frame payload, got %v", got)
	}

	cancel()
	clientFIFO.Close()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got: %v", err)
	}
}

func TestWorkerDecodeDropsMismatchedPayloadType(t *testing.T) {
	t.Parallel()

	clientFIFO := newMemPipe()
	btSocket := newMemPipe()
	defer clientFIFO.Close()
	defer btSocket.Close()

	signal := make(chan worker.Signal, 1)
	cfg := worker.Config{
		Direction:   worker.DirectionDecode,
		Codec:       passthroughCodec{},
		PayloadType: 96,
		PCMRate:     44100,
		MTU:         128,
		ClientFIFO:  clientFIFO,
		BTSocket:    btSocket,
		Signal:      signal,
	}
	w := worker.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	badPacket := make([]byte, 20)
	badPacket[0] = 0x80
	badPacket[1] = 97 // mismatched payload type
	if _, err := btSocket.Write(badPacket); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	out := make([]byte, 16)
	n, _ := tryRead(clientFIFO, out)
	if n != 0 {
		t.Errorf("expected no decoded output for mismatched payload type, got %d bytes", n)
	}
}

func TestWorkerHandlesCloseSignalByDiscardingDecodedOutput(t *testing.T) {
	t.Parallel()

	clientFIFO := newMemPipe()
	btSocket := newMemPipe()
	defer clientFIFO.Close()
	defer btSocket.Close()

	signal := make(chan worker.Signal, 1)
	cfg := worker.Config{
		Direction:   worker.DirectionDecode,
		Codec:       passthroughCodec{},
		PayloadType: 96,
		PCMRate:     44100,
		MTU:         128,
		ClientFIFO:  clientFIFO,
		BTSocket:    btSocket,
		Signal:      signal,
	}
	w := worker.New(cfg)
	signal <- worker.SignalClose

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // let the close signal land

	packet := make([]byte, 20)
	packet[0] = 0x80
	packet[1] = 96
	if _, err := btSocket.Write(packet); err != nil {
		t.Fatalf("write: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	out := make([]byte, 16)
	n, _ := tryRead(clientFIFO, out)
	if n != 0 {
		t.Errorf("expected decoded audio dropped while PCM closed, got %d bytes", n)
	}
}

func tryRead(p *memPipe, buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.buf.Len() == 0 {
		return 0, nil
	}
	return p.buf.Read(buf)
}

func readWithTimeout(p *memPipe, buf []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := p.Read(buf)
		ch <- result{n, err}
	}()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-time.After(timeout):
		return 0, context.DeadlineExceeded
	}
}
