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

// Package metrics exposes the daemon's Prometheus instrumentation: active
// transports, worker restarts, RTP loss, per-transport processing delay and
// HFP SLC retries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the daemon publishes.
type Metrics struct {
	TransportsActive    prometheus.Gauge
	WorkerRestartsTotal *prometheus.CounterVec
	RTPPacketsLostTotal *prometheus.CounterVec
	RTPPacketsOOOTotal  *prometheus.CounterVec
	ProcessingDelayUsec *prometheus.GaugeVec
	SLCRetriesTotal     *prometheus.CounterVec
	SLCStateTransitions *prometheus.CounterVec
}

// NewMetrics creates and registers every collector against the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TransportsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btaudiod_transports_active",
			Help: "The number of transports currently acquired and streaming",
		}),
		WorkerRestartsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btaudiod_worker_restarts_total",
			Help: "The total number of streaming worker restarts, by transport profile",
		}, []string{"profile"}),
		RTPPacketsLostTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btaudiod_rtp_packets_lost_total",
			Help: "The total number of RTP packets detected missing via sequence-number gaps",
		}, []string{"transport"}),
		RTPPacketsOOOTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btaudiod_rtp_packets_out_of_order_total",
			Help: "The total number of RTP packets received with a sequence number behind the expected one",
		}, []string{"transport"}),
		ProcessingDelayUsec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "btaudiod_processing_delay_usec",
			Help: "Per-transport time spent encoding/decoding the most recent quantum, in microseconds",
		}, []string{"transport"}),
		SLCRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btaudiod_hfp_slc_retries_total",
			Help: "The total number of HFP SLC command retries",
		}, []string{"device"}),
		SLCStateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btaudiod_hfp_slc_state_transitions_total",
			Help: "The total number of HFP SLC state-machine transitions",
		}, []string{"from", "to"}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.TransportsActive)
	prometheus.MustRegister(m.WorkerRestartsTotal)
	prometheus.MustRegister(m.RTPPacketsLostTotal)
	prometheus.MustRegister(m.RTPPacketsOOOTotal)
	prometheus.MustRegister(m.ProcessingDelayUsec)
	prometheus.MustRegister(m.SLCRetriesTotal)
	prometheus.MustRegister(m.SLCStateTransitions)
}

// RecordWorkerRestart increments the worker-restart counter for profile.
func (m *Metrics) RecordWorkerRestart(profile string) {
	m.WorkerRestartsTotal.WithLabelValues(profile).Inc()
}

// RecordRTPLoss adds missing to the lost-packet counter for transport.
func (m *Metrics) RecordRTPLoss(transport string, missing uint32) {
	if missing > 0 {
		m.RTPPacketsLostTotal.WithLabelValues(transport).Add(float64(missing))
	}
}

// RecordRTPOutOfOrder increments the out-of-order counter for transport.
func (m *Metrics) RecordRTPOutOfOrder(transport string) {
	m.RTPPacketsOOOTotal.WithLabelValues(transport).Inc()
}

// SetProcessingDelay publishes the most recent asrsync busy time, in
// microseconds, for transport.
func (m *Metrics) SetProcessingDelay(transport string, busyUsec int64) {
	m.ProcessingDelayUsec.WithLabelValues(transport).Set(float64(busyUsec))
}

// RecordSLCRetry increments the SLC retry counter for device.
func (m *Metrics) RecordSLCRetry(device string) {
	m.SLCRetriesTotal.WithLabelValues(device).Inc()
}

// RecordSLCTransition increments the SLC state-transition counter.
func (m *Metrics) RecordSLCTransition(from, to string) {
	m.SLCStateTransitions.WithLabelValues(from, to).Inc()
}
