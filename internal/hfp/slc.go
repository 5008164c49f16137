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

package hfp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/btaudio/btaudiod/internal/btaerr"
	"github.com/btaudio/btaudiod/internal/eventbus"
	"github.com/btaudio/btaudiod/internal/retry"
)

// State is the RFCOMM service-level-connection state. The only forward
// path is disconnected -> brsf_set -> bac_set -> cind_test -> cind_get ->
// cmer_set -> slc_connected -> (optional) codec_negotiated; any step's
// error or rejection transitions back to disconnected.
type State int

const (
	StateDisconnected State = iota
	StateBRSFSet
	StateBACSet
	StateCINDTest
	StateCINDGet
	StateCMERSet
	StateSLCConnected
	StateCodecNegotiated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateBRSFSet:
		return "brsf_set"
	case StateBACSet:
		return "bac_set"
	case StateCINDTest:
		return "cind_test"
	case StateCINDGet:
		return "cind_get"
	case StateCMERSet:
		return "cmer_set"
	case StateSLCConnected:
		return "slc_connected"
	case StateCodecNegotiated:
		return "codec_negotiated"
	default:
		return "unknown"
	}
}

// Timing constants from the concurrency model: a per-command acknowledgment
// timeout and an overall idle timeout bounding the whole handshake.
const (
	TimeoutAck  = 1000 * time.Millisecond
	TimeoutIdle = 2500 * time.Millisecond
	// DefaultSLCRetries bounds how many full handshake attempts an idle
	// SLC makes before declaring failure.
	DefaultSLCRetries = 3
)

// Transport is what the SLC state machine needs from the underlying
// RFCOMM link.
type Transport interface {
	WriteLine(ctx context.Context, line string) error
	ReadLine(ctx context.Context) (string, error)
}

// SLC drives one RFCOMM link's HFP service-level-connection handshake and
// subsequent AG-initiated codec (re)selection. Codec selection is message
// passing rather than the source's condition-variable handshake: the
// RFCOMM goroutine sends the newly selected codec id on codecSelected, a
// single-slot channel that always holds only the most recent selection,
// and an acquirer calls AwaitCodecSelected with its own deadline to
// receive it.
type SLC struct {
	mu            sync.Mutex
	state         State
	selectedCodec int
	hfCodecs      []int
	codecSelected chan int

	transport Transport
	deadline  *retry.Deadline

	bus         eventbus.EventBus
	transportID uint64
}

// NewSLC constructs an SLC state machine over transport. hfCodecs is the
// HF's AT+BAC codec mask (empty if the HF supports only narrowband CVSD).
// retries bounds full-handshake attempts; 0 selects DefaultSLCRetries.
func NewSLC(transport Transport, hfCodecs []int, retries int) *SLC {
	if retries <= 0 {
		retries = DefaultSLCRetries
	}
	return &SLC{
		transport:     transport,
		hfCodecs:      append([]int(nil), hfCodecs...),
		codecSelected: make(chan int, 1),
		deadline: retry.NewDeadline(retry.Budget{
			MaxAttempts: retries,
			Timeout:     5 * TimeoutAck,
			Idle:        TimeoutIdle,
		}),
	}
}

// WithEventBus attaches bus and the owning transport's id so subsequent
// state transitions publish TopicSLCStateChanged. Returns s for chaining.
func (s *SLC) WithEventBus(bus eventbus.EventBus, transportID uint64) *SLC {
	s.bus = bus
	s.transportID = transportID
	return s
}

// State returns the current SLC state.
func (s *SLC) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SLC) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.publishStateChanged(state)
}

func (s *SLC) publishStateChanged(state State) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(struct {
		TransportID uint64 `json:"transport_id"`
		State       string `json:"state"`
	}{s.transportID, state.String()})
	if err != nil {
		return
	}
	_ = s.bus.Publish(context.Background(), eventbus.TopicSLCStateChanged, payload)
}

// Connect drives the handshake to slc_connected, retrying the whole
// sequence from disconnected on any step's failure, up to the configured
// retry budget and bounded by TIMEOUT_IDLE overall. Returns a
// NegotiationTimeout error once the budget is exhausted.
func (s *SLC) Connect(ctx context.Context, hfFeatures uint32) error {
	for {
		err := s.deadline.Step(ctx, func(stepCtx context.Context) error {
			return s.runHandshake(stepCtx, hfFeatures)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, retry.ErrRetriesExhausted) || errors.Is(err, retry.ErrIdleTimeout) {
			s.setState(StateDisconnected)
			return btaerr.New(btaerr.KindNegotiationTimeout, err)
		}
		s.setState(StateDisconnected)
	}
}

func (s *SLC) runHandshake(ctx context.Context, hfFeatures uint32) error {
	if err := s.step(ctx, fmt.Sprintf("AT+BRSF=%d", hfFeatures)); err != nil {
		return err
	}
	s.setState(StateBRSFSet)

	if len(s.hfCodecs) > 0 {
		if err := s.step(ctx, "AT+BAC="+joinInts(s.hfCodecs)); err != nil {
			return err
		}
	}
	s.setState(StateBACSet)

	if err := s.step(ctx, "AT+CIND=?"); err != nil {
		return err
	}
	s.setState(StateCINDTest)

	if err := s.step(ctx, "AT+CIND?"); err != nil {
		return err
	}
	s.setState(StateCINDGet)

	if err := s.step(ctx, "AT+CMER=3,0,0,1"); err != nil {
		return err
	}
	s.setState(StateCMERSet)
	s.setState(StateSLCConnected)
	return nil
}

// step sends cmd and reads response lines, each bounded by TIMEOUT_ACK,
// until the AG replies OK or ERROR. Intermediate unsolicited lines (e.g.
// "+BRSF: 111" ahead of the command's own OK) are read and discarded.
func (s *SLC) step(ctx context.Context, cmd string) error {
	if err := s.transport.WriteLine(ctx, cmd); err != nil {
		return fmt.Errorf("hfp: write %q: %w", cmd, err)
	}
	for {
		line, err := s.readWithin(ctx, TimeoutAck)
		if err != nil {
			return fmt.Errorf("hfp: awaiting response to %q: %w", cmd, err)
		}
		if IsError(line) {
			return fmt.Errorf("hfp: %q rejected: %s", cmd, line)
		}
		if IsOK(line) {
			return nil
		}
	}
}

func (s *SLC) readWithin(ctx context.Context, timeout time.Duration) (string, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.transport.ReadLine(stepCtx)
}

// codecSupported reports whether codecID is in the HF's advertised mask,
// or, if the HF advertised no mask, whether codecID is CVSD (1): a
// narrowband-only HF implicitly supports only CVSD.
func (s *SLC) codecSupported(codecID int) bool {
	if len(s.hfCodecs) == 0 {
		return codecID == 1 // CVSD
	}
	for _, id := range s.hfCodecs {
		if id == codecID {
			return true
		}
	}
	return false
}

// HandleCodecProposal processes an AG-initiated "+BCS: <id>" proposal,
// accepting with AT+BCS=<id> when codecID is in the HF's mask, or
// counter-offering the mask again via AT+BAC otherwise. A rejected
// proposal surfaces CodecNotSupported so the acquirer's ENOTSUP maps
// through cleanly.
func (s *SLC) HandleCodecProposal(ctx context.Context, msg Message) error {
	codecID, ok := ParseBCS(msg)
	if !ok {
		return fmt.Errorf("hfp: malformed codec proposal")
	}

	if !s.codecSupported(codecID) {
		if err := s.transport.WriteLine(ctx, "AT+BAC="+joinInts(s.hfCodecs)); err != nil {
			return fmt.Errorf("hfp: counter-offer: %w", err)
		}
		return btaerr.New(btaerr.KindCodecNotSupported, fmt.Errorf("codec id %d not in hf mask", codecID))
	}

	if err := s.transport.WriteLine(ctx, fmt.Sprintf("AT+BCS=%d", codecID)); err != nil {
		return fmt.Errorf("hfp: accept codec: %w", err)
	}

	s.mu.Lock()
	s.selectedCodec = codecID
	s.state = StateCodecNegotiated
	s.mu.Unlock()

	// Keep only the most recent selection: drain a stale pending value
	// before sending so a slow acquirer never observes an outdated id.
	select {
	case <-s.codecSelected:
	default:
	}
	s.codecSelected <- codecID

	return nil
}

// SelectedCodec returns the most recently negotiated codec id, or 0 if
// none has been negotiated yet.
func (s *SLC) SelectedCodec() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCodec
}

// AwaitCodecSelected blocks until the RFCOMM goroutine selects a codec or
// ctx is done, whichever comes first. Callers typically bound ctx with
// TIMEOUT_ACK-scale deadline of their own.
func (s *SLC) AwaitCodecSelected(ctx context.Context) (int, error) {
	select {
	case codecID := <-s.codecSelected:
		return codecID, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// LinkLostRequiresDestroy reports whether err observed on an RFCOMM read
// indicates the external Bluetooth service failed to emit its own
// disconnection signal, so the caller must force a full SCO transport
// destroy — not a mere reference drop — to free all resources.
func LinkLostRequiresDestroy(err error) bool {
	return errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENOTCONN) ||
		errors.Is(err, syscall.ETIMEDOUT)
}
