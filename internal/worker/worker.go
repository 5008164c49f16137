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

// Package worker runs the per-direction streaming loops that move media
// between a remote Bluetooth endpoint and a local client FIFO: codec
// encode/decode, RTP framing, rate pacing via asrsync, and the signaling
// pipe that lets the transport graph reconfigure a running worker without
// tearing it down.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/btaudio/btaudiod/internal/asrsync"
	"github.com/btaudio/btaudiod/internal/btaerr"
	"github.com/btaudio/btaudiod/internal/ffb"
	"github.com/btaudio/btaudiod/internal/rtp"
)

// Direction distinguishes the two halves of a transport's media path.
type Direction int

const (
	// DirectionEncode reads PCM from the client FIFO and writes codec
	// frames to the Bluetooth socket (A2DP source).
	DirectionEncode Direction = iota
	// DirectionDecode reads codec frames from the Bluetooth socket and
	// writes PCM to the client FIFO (A2DP sink).
	DirectionDecode
)

// Signal is a one-byte opcode carried on a PCM's signaling pipe, polled by
// the worker loop alongside its data fd.
type Signal byte

const (
	// SignalOpen re-anchors rate sync and marks the PCM active.
	SignalOpen Signal = iota
	// SignalClose marks the PCM inactive; the worker keeps running but
	// discards output.
	SignalClose
	// SignalPause behaves like Close for the purposes of the worker loop;
	// kept distinct so callers can tell a deliberate pause from a dropped
	// client in logs and events.
	SignalPause
	// SignalResume re-anchors rate sync, like Open.
	SignalResume
	// SignalSync is a no-op used only to wake the worker on a settings
	// change (e.g. volume) that the next iteration will pick up.
	SignalSync
	// SignalDrop flushes codec state.
	SignalDrop
)

// SignalBufferSize is the buffer depth callers should give a worker's
// signal channel, enough to hold a burst of settings changes (volume,
// pause/resume) without the sender blocking on a busy worker.
const SignalBufferSize = 4

// pollInterval bounds how long a cooperative read blocks before the loop
// rechecks ctx and the signaling pipe, on readers that support a read
// deadline. Readers that don't (a plain io.Reader with no SetReadDeadline)
// block for a full read instead; cancellation then takes effect on the
// next completed read, which for real FIFO/socket fds still unblocks
// promptly once the transport's Destroy closes them.
const pollInterval = 200 * time.Millisecond

// deadlineSetter is implemented by *os.File and most net.Conn
// implementations, and lets the loop recheck for cancellation instead of
// blocking indefinitely in Read.
type deadlineSetter interface {
	SetReadDeadline(time.Time) error
}

// Codec is implemented by an out-of-tree codec library: SBC, AAC, aptX, and
// friends are external collaborators to this package, wired in by whatever
// constructs a Config for a negotiated transport.
type Codec interface {
	// Encode consumes a whole number of PCM frames from the front of pcm
	// and appends one encoded codec frame to out, returning the number of
	// PCM bytes consumed. It returns (0, nil) if pcm does not yet hold a
	// full frame's worth of samples.
	Encode(pcm []byte, out *ffb.Buffer) (consumed int, err error)
	// Decode consumes one codec frame from the front of frame and appends
	// decoded PCM to out.
	Decode(frame []byte, out *ffb.Buffer) error
	// FrameDuration is the number of PCM frames (samples per channel) one
	// codec frame spans, used to advance the RTP timestamp.
	FrameDuration() uint32
}

// Config wires one worker loop to its transport's resources. A transport
// with both directions active (HFP/HSP SCO) runs two Workers sharing a
// Config's Transport/DeviceAddress identity but distinct Direction,
// Codec, ClientFIFO, BTSocket and Signal channel.
type Config struct {
	TransportID   uint64
	DeviceAddress string
	Direction     Direction
	Codec         Codec
	PayloadType   uint8
	SSRC          uint32
	ClockRate     uint32
	PCMRate       uint32
	MTU           int
	ClientFIFO    io.ReadWriter
	BTSocket      io.ReadWriter
	// Signal is the per-PCM signaling pipe. The caller owns sending to it;
	// the worker owns receiving.
	Signal <-chan Signal
	// Observe is called after every batch with the busy and
	// decimilliseconds-since-sync stats asrsync reports, seeding the
	// core's processing-delay estimate. May be nil.
	Observe func(busyUsec, dmsSinceSync int64)
	Logger  *slog.Logger
}

// rtpOverhead is the fixed RTP header size every fragment pays in addition
// to any codec-specific payload header, which Codec.Encode is expected to
// have already accounted for in what it appends to out.
const rtpOverhead = rtp.HeaderSize

// Worker runs one direction of one transport's media path until ctx is
// cancelled or an unrecoverable error occurs. A Worker is single-use: call
// Run once.
type Worker struct {
	cfg Config

	pcmBuf *ffb.Buffer
	btBuf  *ffb.Buffer

	asr     *asrsync.Sync
	encoder *rtp.EncoderState
	decoder *rtp.DecoderState

	active bool // mirrors the PCM's open/close signaling state
}

// New constructs a Worker from cfg. cfg is not mutated.
func New(cfg Config) *Worker {
	w := &Worker{cfg: cfg, active: true}
	switch cfg.Direction {
	case DirectionEncode:
		w.pcmBuf = ffb.New(quantumBytes)
		w.btBuf = ffb.New(cfg.MTU)
		w.encoder = rtp.NewEncoderState(cfg.PayloadType, cfg.SSRC, cfg.ClockRate, cfg.PCMRate)
	case DirectionDecode:
		w.btBuf = ffb.New(cfg.MTU)
		w.pcmBuf = ffb.New(quantumBytes)
		w.decoder = rtp.NewDecoderState(cfg.PayloadType)
	}
	w.asr = asrsync.New(cfg.PCMRate)
	if cfg.Logger == nil {
		w.cfg.Logger = slog.Default()
	}
	return w
}

// quantumBytes is the PCM scratch buffer size; generous enough for any
// codec's frame alignment at the sample rates this daemon negotiates.
const quantumBytes = 1 << 16

// Run executes the worker's loop skeleton: poll the signaling pipe
// alongside the data fd, dispatch signals, move one quantum, pace with
// asrsync. It returns nil on clean cancellation (ctx.Err() wrapped as
// context.Canceled) and a *btaerr.Wrapped error on any other exit.
func (w *Worker) Run(ctx context.Context) error {
	defer w.release()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-w.cfg.Signal:
			w.handleSignal(sig)
			continue
		default:
		}

		var err error
		switch w.cfg.Direction {
		case DirectionEncode:
			err = w.stepEncode(ctx)
		case DirectionDecode:
			err = w.stepDecode(ctx)
		}
		if err != nil {
			if errors.Is(err, errPoll) {
				continue
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// errPoll signals a cooperative-cancellation read timeout: no data was
// available this iteration, not a real I/O error.
var errPoll = errors.New("worker: poll timeout")

func (w *Worker) handleSignal(sig Signal) {
	switch sig {
	case SignalOpen, SignalResume:
		w.active = true
		w.asr.Init(time.Now())
		if w.decoder != nil {
			w.decoder.Unsync()
		}
	case SignalClose, SignalPause:
		w.active = false
		if w.decoder != nil {
			w.decoder.Unsync()
		}
	case SignalDrop:
		w.pcmBuf.Rewind()
		w.btBuf.Rewind()
	case SignalSync:
		// wakes the loop; settings are read fresh next iteration.
	}
}

// stepEncode reads available PCM, encodes whole frames into btBuf, and
// writes the accumulated packet to the Bluetooth socket once either
// another frame would overflow the MTU or input is exhausted.
func (w *Worker) stepEncode(ctx context.Context) error {
	n, err := cooperativeRead(ctx, w.cfg.ClientFIFO, w.pcmBuf.Tail())
	if err != nil {
		return btaerr.New(btaerr.KindClientDisconnected, err)
	}
	if n == 0 {
		return errPoll
	}
	w.pcmBuf.Seek(n)

	framesThisBatch := uint32(0)
	w.btBuf.Rewind()
	w.btBuf.Seek(rtpOverhead)

	for {
		room := w.btBuf.LenIn()
		if room <= 0 {
			break
		}
		consumed, err := w.cfg.Codec.Encode(w.pcmBuf.Head(), w.btBuf)
		if err != nil {
			return btaerr.New(btaerr.KindCodecNotSupported, err)
		}
		if consumed == 0 {
			break
		}
		w.pcmBuf.Shift(consumed)
		framesThisBatch += w.cfg.Codec.FrameDuration()
	}

	if w.btBuf.LenOut() > rtpOverhead {
		if err := w.flushEncoded(); err != nil {
			return err
		}
	}

	if framesThisBatch > 0 {
		w.encoder.Update(framesThisBatch)
		w.asr.Sync(framesThisBatch)
		if w.cfg.Observe != nil {
			busy, dms := w.asr.Stats()
			w.cfg.Observe(busy, dms)
		}
	}
	return nil
}

// flushEncoded fragments the accumulated codec payload across as many RTP
// packets as needed to respect MTU, marker bit set only on the final
// fragment, all fragments sharing one timestamp.
func (w *Worker) flushEncoded() error {
	payload := w.btBuf.Head()[rtpOverhead:]
	maxPayload := w.cfg.MTU - rtpOverhead
	if maxPayload <= 0 {
		return btaerr.New(btaerr.KindInvalidConfiguration, fmt.Errorf("mtu %d too small for rtp overhead", w.cfg.MTU))
	}

	for offset := 0; offset < len(payload) || offset == 0; {
		end := offset + maxPayload
		final := end >= len(payload)
		if final {
			end = len(payload)
		}

		header := w.encoder.NewFrame(final)
		packet := make([]byte, rtp.HeaderSize+(end-offset))
		header.Marshal(packet)
		copy(packet[rtp.HeaderSize:], payload[offset:end])

		if _, err := w.cfg.BTSocket.Write(packet); err != nil {
			return btaerr.New(btaerr.KindLinkLost, err)
		}
		offset = end
		if final {
			break
		}
	}
	return nil
}

// stepDecode reads one Bluetooth datagram, validates and syncs its RTP
// header, decodes to PCM, and writes to the client FIFO if the PCM is
// active. Decoded audio is dropped, and the stream marked unsynced, when
// the client is absent.
func (w *Worker) stepDecode(ctx context.Context) error {
	w.btBuf.Rewind()
	n, err := cooperativeRead(ctx, w.cfg.BTSocket, w.btBuf.Tail())
	if err != nil {
		return btaerr.New(btaerr.KindLinkLost, err)
	}
	if n == 0 {
		return errPoll
	}
	w.btBuf.Seek(n)

	header, err := rtp.Unmarshal(w.btBuf.Head())
	if err != nil {
		return nil // malformed datagram, drop and continue
	}
	if header.PayloadType != w.cfg.PayloadType {
		return nil
	}

	result := w.decoder.SyncStream(header)
	if result.Dropped {
		return nil
	}

	if !w.active {
		w.decoder.Unsync()
		return nil
	}

	w.pcmBuf.Rewind()
	payload := w.btBuf.Head()[rtp.HeaderSize:]
	if err := w.cfg.Codec.Decode(payload, w.pcmBuf); err != nil {
		return btaerr.New(btaerr.KindCodecNotSupported, err)
	}

	if _, err := w.cfg.ClientFIFO.Write(w.pcmBuf.Head()); err != nil {
		if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, io.EOF) {
			return btaerr.New(btaerr.KindClientDisconnected, err)
		}
		return nil // EPIPE-class errors are recovered: mark inactive, keep running
	}

	w.asr.Sync(w.cfg.Codec.FrameDuration())
	if w.cfg.Observe != nil {
		busy, dms := w.asr.Stats()
		w.cfg.Observe(busy, dms)
	}
	return nil
}

func (w *Worker) release() {
	w.pcmBuf.Release()
	w.btBuf.Release()
}

// cooperativeRead performs one Read, using a short deadline to recheck ctx
// and the signaling pipe when r supports SetReadDeadline, and a plain
// blocking Read otherwise. It returns (0, nil) on a deadline timeout so
// the caller's loop treats it as "nothing available this iteration".
func cooperativeRead(ctx context.Context, r io.Reader, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if ds, ok := r.(deadlineSetter); ok {
		_ = ds.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := r.Read(buf)
		if isTimeout(err) {
			return 0, nil
		}
		return n, err
	}
	return r.Read(buf)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
