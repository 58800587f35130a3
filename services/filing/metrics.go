// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package filing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects counters for the filing core. All methods are nil-safe
// so services can run without a metrics sink in tests.
type Metrics struct {
	registry *prometheus.Registry

	uploadsStarted   prometheus.Counter
	uploadsCompleted prometheus.Counter
	uploadsFailed    prometheus.Counter
	activeUploads    prometheus.Gauge
	autosaves        prometheus.Counter
	autosaveFailures prometheus.Counter
	pollCycles       prometheus.Counter
	notifications    prometheus.Counter
}

// NewMetrics creates a Metrics backed by its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		uploadsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "uploads_started_total",
			Help: "Document uploads started.",
		}),
		uploadsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "uploads_completed_total",
			Help: "Document uploads completed successfully.",
		}),
		uploadsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "uploads_failed_total",
			Help: "Document uploads that ended in error.",
		}),
		activeUploads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "filingkit", Name: "active_uploads",
			Help: "Uploads currently in flight.",
		}),
		autosaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "autosaves_total",
			Help: "Debounced wizard snapshots written.",
		}),
		autosaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "autosave_failures_total",
			Help: "Snapshot writes that failed (retried on next change).",
		}),
		pollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "admin_poll_cycles_total",
			Help: "Admin diff cycles executed.",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "filingkit", Name: "notifications_raised_total",
			Help: "User-facing notifications added to the store.",
		}),
	}
	reg.MustRegister(
		m.uploadsStarted, m.uploadsCompleted, m.uploadsFailed,
		m.activeUploads, m.autosaves, m.autosaveFailures,
		m.pollCycles, m.notifications,
	)
	return m
}

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) UploadStarted() {
	if m == nil {
		return
	}
	m.uploadsStarted.Inc()
	m.activeUploads.Inc()
}

func (m *Metrics) UploadSettled(err error) {
	if m == nil {
		return
	}
	m.activeUploads.Dec()
	if err != nil {
		m.uploadsFailed.Inc()
		return
	}
	m.uploadsCompleted.Inc()
}

func (m *Metrics) AutosaveWritten(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.autosaveFailures.Inc()
		return
	}
	m.autosaves.Inc()
}

func (m *Metrics) PollCycle() {
	if m == nil {
		return
	}
	m.pollCycles.Inc()
}

func (m *Metrics) NotificationRaised() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}
