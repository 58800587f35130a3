// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
	"github.com/alpinetax/filingkit/services/filing/storage"
	filingbadger "github.com/alpinetax/filingkit/services/filing/storage/badger"
)

// scriptedFetcher returns a fixed history and counts calls.
type scriptedFetcher struct {
	mu    sync.Mutex
	forms []backend.FormSummary
	err   error
	calls int
}

func (f *scriptedFetcher) FormHistory(context.Context, string) ([]backend.FormSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.forms, nil
}

func (f *scriptedFetcher) set(forms []backend.FormSummary, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms = forms
	f.err = err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestPoller(t *testing.T, fetcher HistoryFetcher) (*Poller, *events.Recorder, *storage.Store) {
	t.Helper()
	db, err := filingbadger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := storage.NewStore(db, nil)

	emitter := events.NewEmitter()
	recorder := events.NewRecorder()
	emitter.Subscribe(recorder.Handle)

	p := NewPoller(fetcher, store, emitter)
	return p, recorder, store
}

func TestFirstSightStoresMarkerWithoutNotifying(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "under_review"}}}
	p, recorder, store := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	p.checkForAdminActions("token")

	assert.Zero(t, recorder.Count(), "first observation must not notify")
	status, seen, err := store.StatusMarker(context.Background(), "F1")
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, "under_review", status)

	// Second cycle with a changed status fires exactly one event.
	fetcher.set([]backend.FormSummary{{ID: "F1", Status: "approved"}}, nil)
	p.refreshHistory("token")
	p.checkForAdminActions("token")

	changed := recorder.ByType(events.TypeAdminStatusChanged)
	require.Len(t, changed, 1)
	data := changed[0].Data.(events.AdminStatusData)
	assert.Equal(t, "F1", data.FormID)
	assert.Equal(t, "under_review", data.OldStatus)
	assert.Equal(t, "approved", data.NewStatus)

	status, _, err = store.StatusMarker(context.Background(), "F1")
	require.NoError(t, err)
	assert.Equal(t, "approved", status)
}

func TestUnchangedStatusStaysQuiet(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "submitted"}}}
	p, recorder, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	for i := 0; i < 3; i++ {
		p.checkForAdminActions("token")
	}
	assert.Zero(t, recorder.Count())
}

func TestNewAdminDocumentsNotifyOnce(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "under_review"}}}
	p, recorder, _ := newTestPoller(t, fetcher)

	// First sight records the empty document list.
	p.refreshHistory("token")
	p.checkForAdminActions("token")
	require.Zero(t, recorder.Count())

	fetcher.set([]backend.FormSummary{{
		ID: "F1", Status: "under_review",
		AdminDocuments: []backend.AdminDocument{
			{ID: "a1", Name: "draft.pdf", Category: backend.AdminCategoryDraftReturn, UploadedAt: "2026-02-01T10:00:00Z"},
			{ID: "a2", Name: "final.pdf", Category: backend.AdminCategoryFinalReturn, UploadedAt: "2026-02-01T11:00:00Z"},
			{ID: "a3", Name: "notes.txt", Category: "internal_notes", UploadedAt: "2026-02-01T12:00:00Z"},
		},
	}}, nil)
	p.refreshHistory("token")
	p.checkForAdminActions("token")

	docs := recorder.ByType(events.TypeAdminDocumentUploaded)
	require.Len(t, docs, 2, "only draft_return and final_return notify")

	// Same list again: the marker absorbed it, nothing new fires.
	p.checkForAdminActions("token")
	assert.Len(t, recorder.ByType(events.TypeAdminDocumentUploaded), 2)
}

func TestReuploadedDocumentNotifiesAgain(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{
		ID: "F1", Status: "under_review",
		AdminDocuments: []backend.AdminDocument{
			{ID: "a1", Name: "draft.pdf", Category: backend.AdminCategoryDraftReturn, UploadedAt: "2026-02-01T10:00:00Z"},
		},
	}}}
	p, recorder, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	p.checkForAdminActions("token")
	require.Zero(t, recorder.Count())

	// Same id, newer uploadedAt: the (id, uploadedAt) pair is new.
	fetcher.set([]backend.FormSummary{{
		ID: "F1", Status: "under_review",
		AdminDocuments: []backend.AdminDocument{
			{ID: "a1", Name: "draft.pdf", Category: backend.AdminCategoryDraftReturn, UploadedAt: "2026-02-02T08:00:00Z"},
		},
	}}, nil)
	p.refreshHistory("token")
	p.checkForAdminActions("token")

	assert.Len(t, recorder.ByType(events.TypeAdminDocumentUploaded), 1)
}

func TestCacheReusedWithinMaxAge(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "submitted"}}}
	p, _, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	require.Equal(t, 1, fetcher.callCount())

	// Fresh cache: diff cycles must not refetch.
	p.checkForAdminActions("token")
	p.checkForAdminActions("token")
	assert.Equal(t, 1, fetcher.callCount())
}

func TestStaleCacheForcesRefresh(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "submitted"}}}

	current := time.Now()
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	db, err := filingbadger.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()
	store := storage.NewStore(db, nil)
	p := NewPoller(fetcher, store, events.NewEmitter(), WithClock(now))

	p.refreshHistory("token")
	require.Equal(t, 1, fetcher.callCount())

	mu.Lock()
	current = current.Add(DefaultCacheMaxAge + time.Minute)
	mu.Unlock()

	p.checkForAdminActions("token")
	assert.Equal(t, 2, fetcher.callCount(), "a cache older than the max age refetches inline")
}

func TestFetchFailureKeepsCache(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "submitted"}}}
	p, _, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	fetcher.set(nil, errors.New("backend down"))
	p.refreshHistory("token")

	st := p.GetStatus()
	assert.Equal(t, 1, st.CachedForms, "failed refresh keeps the previous cache")
}

func TestEmptyHistoryIsANoOp(t *testing.T) {
	fetcher := &scriptedFetcher{}
	p, recorder, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	p.checkForAdminActions("token")
	assert.Zero(t, recorder.Count())
}

func TestStartStopLifecycle(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "submitted"}}}
	db, err := filingbadger.OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	p := NewPoller(fetcher, storage.NewStore(db, nil), events.NewEmitter(),
		WithIntervals(10*time.Millisecond, 20*time.Millisecond, time.Minute))

	p.Start("token")
	p.Start("token") // second Start is a no-op
	assert.True(t, p.GetStatus().Active)

	require.Eventually(t, func() bool { return fetcher.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop() // idempotent
	assert.False(t, p.GetStatus().Active)

	calls := fetcher.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, fetcher.callCount(), "no fetches after Stop")
}

func TestClearStoredDataResetsFirstSight(t *testing.T) {
	fetcher := &scriptedFetcher{forms: []backend.FormSummary{{ID: "F1", Status: "under_review"}}}
	p, recorder, _ := newTestPoller(t, fetcher)

	p.refreshHistory("token")
	p.checkForAdminActions("token")

	require.NoError(t, p.ClearStoredData(context.Background(), "F1"))

	// After clearing, a changed status is first-sight again: no event.
	fetcher.set([]backend.FormSummary{{ID: "F1", Status: "approved"}}, nil)
	p.refreshHistory("token")
	p.checkForAdminActions("token")
	assert.Zero(t, recorder.Count())
}
