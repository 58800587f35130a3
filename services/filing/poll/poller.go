// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package poll detects backend staff actions on a submitted form without a
// push channel: it periodically diffs the backend's view of the form
// against durable last-seen markers and publishes events for changes.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
	"github.com/alpinetax/filingkit/services/filing/storage"
)

// Defaults. The fast interval drives marker diffing against the cached
// history; the slow interval refreshes the cache itself, and the cache is
// additionally refreshed inline when older than cacheMaxAge. Backend call
// frequency is therefore bounded by the slow interval and cacheMaxAge, not
// by the fast timer.
const (
	DefaultCheckInterval   = 10 * time.Second
	DefaultRefreshInterval = 60 * time.Second
	DefaultCacheMaxAge     = 5 * time.Minute

	cycleTimeout = 15 * time.Second
)

// HistoryFetcher is the backend port the poller reads from.
type HistoryFetcher interface {
	FormHistory(ctx context.Context, token string) ([]backend.FormSummary, error)
}

// MarkerStore is the durable last-seen state, keyed per form id.
type MarkerStore interface {
	StatusMarker(ctx context.Context, formID string) (string, bool, error)
	SetStatusMarker(ctx context.Context, formID, status string) error
	DocumentsMarker(ctx context.Context, formID string) ([]storage.AdminDocumentRef, bool, error)
	SetDocumentsMarker(ctx context.Context, formID string, refs []storage.AdminDocumentRef) error
	ClearMarkers(ctx context.Context, formID string) error
}

// Status is a diagnostic snapshot of the poller.
type Status struct {
	Active           bool      `json:"active"`
	LastCheck        time.Time `json:"lastCheck"`
	LastHistoryFetch time.Time `json:"lastHistoryFetch"`
	CacheAgeMinutes  float64   `json:"cacheAgeMinutes"`
	CachedForms      int       `json:"cachedForms"`
}

// Poller runs the dual-interval polling loop. Its failures are logged and
// never surfaced to the user; the next tick simply tries again.
//
// Thread Safety: Poller is safe for concurrent use.
type Poller struct {
	log     *slog.Logger
	fetcher HistoryFetcher
	markers MarkerStore
	emitter *events.Emitter
	metrics *filing.Metrics

	checkInterval   time.Duration
	refreshInterval time.Duration
	cacheMaxAge     time.Duration
	now             func() time.Time

	mu               sync.Mutex
	polling          bool
	token            string
	stopCh           chan struct{}
	doneCh           chan struct{}
	lastCheck        time.Time
	lastHistoryFetch time.Time
	cache            []backend.FormSummary
	cached           bool
}

// Option configures a Poller.
type Option func(*Poller)

func WithLogger(log *slog.Logger) Option {
	return func(p *Poller) { p.log = log }
}

func WithMetrics(m *filing.Metrics) Option {
	return func(p *Poller) { p.metrics = m }
}

// WithIntervals overrides the timers (tests).
func WithIntervals(check, refresh, cacheMaxAge time.Duration) Option {
	return func(p *Poller) {
		p.checkInterval = check
		p.refreshInterval = refresh
		p.cacheMaxAge = cacheMaxAge
	}
}

// WithClock injects a time source (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller. Call Start to begin polling.
func NewPoller(fetcher HistoryFetcher, markers MarkerStore, emitter *events.Emitter, opts ...Option) *Poller {
	p := &Poller{
		log:             slog.Default(),
		fetcher:         fetcher,
		markers:         markers,
		emitter:         emitter,
		checkInterval:   DefaultCheckInterval,
		refreshInterval: DefaultRefreshInterval,
		cacheMaxAge:     DefaultCacheMaxAge,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling with the given token. Already-polling is a no-op.
// One refresh and one diff cycle run immediately so the user does not wait
// a full interval for the first result.
func (p *Poller) Start(token string) {
	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return
	}
	p.polling = true
	p.token = token
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.log.Info("admin polling started",
		"check_interval", p.checkInterval, "refresh_interval", p.refreshInterval)

	go p.run(token, stopCh, doneCh)
}

func (p *Poller) run(token string, stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	p.refreshHistory(token)
	p.checkForAdminActions(token)

	checkTicker := time.NewTicker(p.checkInterval)
	defer checkTicker.Stop()
	refreshTicker := time.NewTicker(p.refreshInterval)
	defer refreshTicker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-refreshTicker.C:
			p.refreshHistory(token)
		case <-checkTicker.C:
			p.checkForAdminActions(token)
		}
	}
}

// Stop halts polling and waits for the loop to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.polling {
		p.mu.Unlock()
		return
	}
	p.polling = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.stopCh, p.doneCh = nil, nil
	p.mu.Unlock()

	close(stopCh)
	<-doneCh
	p.log.Info("admin polling stopped")
}

// ForceCheck runs one diff cycle immediately, outside the timers.
func (p *Poller) ForceCheck(token string) {
	p.checkForAdminActions(token)
}

// ClearStoredData deletes both markers for a form, so the next cycle
// treats it as first-sight again.
func (p *Poller) ClearStoredData(ctx context.Context, formID string) error {
	return p.markers.ClearMarkers(ctx, formID)
}

// GetStatus returns a diagnostic snapshot.
func (p *Poller) GetStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Active:           p.polling,
		LastCheck:        p.lastCheck,
		LastHistoryFetch: p.lastHistoryFetch,
		CachedForms:      len(p.cache),
	}
	if p.cached {
		st.CacheAgeMinutes = p.now().Sub(p.lastHistoryFetch).Minutes()
	}
	return st
}

// refreshHistory fetches the user's form list. On success the cache is
// replaced, even by an explicit empty result. On failure the previous
// cache is retained untouched.
func (p *Poller) refreshHistory(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	forms, err := p.fetcher.FormHistory(ctx, token)
	if err != nil {
		p.log.Warn("form history refresh failed, keeping cached data", "error", err)
		return
	}

	p.mu.Lock()
	p.cache = forms
	p.cached = true
	p.lastHistoryFetch = p.now()
	p.mu.Unlock()

	p.log.Debug("form history refreshed", "forms", len(forms))
}

// checkForAdminActions is one diff cycle. A missing or stale cache forces
// a refresh first; otherwise the cache is reused so the fast timer never
// multiplies backend traffic.
func (p *Poller) checkForAdminActions(token string) {
	p.mu.Lock()
	stale := !p.cached || p.now().Sub(p.lastHistoryFetch) > p.cacheMaxAge
	p.mu.Unlock()

	if stale {
		p.refreshHistory(token)
	}

	p.mu.Lock()
	p.lastCheck = p.now()
	var form *backend.FormSummary
	if len(p.cache) > 0 {
		// history[0] is assumed most recent; users with several
		// submitted forms only get change detection on the newest one.
		f := p.cache[0]
		form = &f
	}
	p.mu.Unlock()

	p.metrics.PollCycle()
	if form == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	p.diffStatus(ctx, *form)
	p.diffAdminDocuments(ctx, *form)
}

// diffStatus compares the form status against the durable marker. First
// sight stores the marker without notifying, so a user who just enabled
// polling is not greeted with a stale "status changed" banner.
func (p *Poller) diffStatus(ctx context.Context, form backend.FormSummary) {
	prev, seen, err := p.markers.StatusMarker(ctx, form.ID)
	if err != nil {
		p.log.Warn("status marker read failed", "form_id", form.ID, "error", err)
		return
	}

	if seen && prev != form.Status {
		p.log.Info("form status changed", "form_id", form.ID, "from", prev, "to", form.Status)
		p.emitter.Emit(events.TypeAdminStatusChanged, events.AdminStatusData{
			FormID:    form.ID,
			OldStatus: prev,
			NewStatus: form.Status,
		})
	}

	// Overwrite unconditionally, changed or not.
	if err := p.markers.SetStatusMarker(ctx, form.ID, form.Status); err != nil {
		p.log.Warn("status marker write failed", "form_id", form.ID, "error", err)
	}
}

// diffAdminDocuments emits one event per admin document whose
// (id, uploadedAt) pair was not in the stored list. Only draft_return and
// final_return categories notify; everything else is tracked silently.
func (p *Poller) diffAdminDocuments(ctx context.Context, form backend.FormSummary) {
	stored, seen, err := p.markers.DocumentsMarker(ctx, form.ID)
	if err != nil {
		p.log.Warn("documents marker read failed", "form_id", form.ID, "error", err)
		return
	}

	known := make(map[storage.AdminDocumentRef]bool, len(stored))
	for _, ref := range stored {
		known[ref] = true
	}

	current := make([]storage.AdminDocumentRef, 0, len(form.AdminDocuments))
	for _, doc := range form.AdminDocuments {
		ref := storage.AdminDocumentRef{ID: doc.ID, UploadedAt: doc.UploadedAt}
		current = append(current, ref)

		// First sight of the form records without notifying, mirroring
		// the status marker.
		if !seen || known[ref] {
			continue
		}
		switch doc.Category {
		case backend.AdminCategoryDraftReturn, backend.AdminCategoryFinalReturn:
			p.log.Info("admin document uploaded",
				"form_id", form.ID, "document_id", doc.ID, "category", doc.Category)
			p.emitter.Emit(events.TypeAdminDocumentUploaded, events.AdminDocumentData{
				FormID:     form.ID,
				DocumentID: doc.ID,
				Category:   doc.Category,
				Name:       doc.Name,
				UploadedAt: doc.UploadedAt,
			})
		}
	}

	if err := p.markers.SetDocumentsMarker(ctx, form.ID, current); err != nil {
		p.log.Warn("documents marker write failed", "form_id", form.ID, "error", err)
	}
}
