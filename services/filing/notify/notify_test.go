// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
)

func TestStoreAddPrependsAndDefaults(t *testing.T) {
	s := NewStore()

	first := s.Add(Notification{Title: "first", Type: "welcomeMessage"})
	second := s.Add(Notification{Title: "second", Type: "documentUploaded"})

	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())
	assert.False(t, first.Read)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title, "newest first")
	assert.Equal(t, "first", all[1].Title)
	assert.Equal(t, 2, s.UnreadCount())
	_ = second
}

func TestStoreAddDefaultsUnread(t *testing.T) {
	s := NewStore()

	n := s.Add(Notification{Title: "x"})
	assert.False(t, n.Read, "read defaults to false")
	assert.Equal(t, 1, s.UnreadCount())

	// A caller that marks the entry read up front keeps that value.
	pre := s.Add(Notification{Title: "y", Read: true})
	assert.True(t, pre.Read)
	assert.Equal(t, 1, s.UnreadCount())
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	s := NewStore()
	a := s.Add(Notification{Title: "a"})
	s.Add(Notification{Title: "b"})

	s.MarkRead(a.ID)
	assert.Equal(t, 1, s.UnreadCount())

	// Marking twice or marking a ghost id changes nothing.
	s.MarkRead(a.ID)
	s.MarkRead("ghost")
	assert.Equal(t, 1, s.UnreadCount())
}

func TestMarkAllReadIdempotent(t *testing.T) {
	s := NewStore()
	s.Add(Notification{Title: "a"})
	s.Add(Notification{Title: "b"})

	s.MarkAllRead()
	assert.Equal(t, 0, s.UnreadCount())
	s.MarkAllRead()
	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.All() {
		assert.True(t, n.Read)
	}
}

func TestRemoveRecountsUnread(t *testing.T) {
	s := NewStore()
	a := s.Add(Notification{Title: "a"})
	s.Add(Notification{Title: "b"})

	s.Remove(a.ID)
	assert.Len(t, s.All(), 1)
	assert.Equal(t, 1, s.UnreadCount())

	s.Remove("ghost")
	assert.Len(t, s.All(), 1)
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.Add(Notification{Title: "a"})
	s.Clear()
	assert.Empty(t, s.All())
	assert.Zero(t, s.UnreadCount())
}

func TestTriggerFireBuildsAndSends(t *testing.T) {
	store := NewStore()
	rec := NewRecordingNotifier()
	triggers := NewTriggers(store, rec, nil)

	triggers.Fire(TriggerAdminStatusChanged, "under_review", "approved", "F1")

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, TriggerAdminStatusChanged, all[0].Type)
	assert.Contains(t, all[0].Body, "under_review")
	assert.Contains(t, all[0].Body, "approved")
	assert.Equal(t, "F1", all[0].Data["formId"])

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, all[0].ID, sent[0].ID)
}

func TestTriggerUnknownNameIsNoOp(t *testing.T) {
	store := NewStore()
	triggers := NewTriggers(store, nil, nil)

	triggers.Fire("definitelyNotATrigger", "arg")
	assert.Empty(t, store.All())
}

func TestTriggerMissingArgsUseDefaults(t *testing.T) {
	store := NewStore()
	triggers := NewTriggers(store, nil, nil)

	triggers.Fire(TriggerDocumentUploaded)
	all := store.All()
	require.Len(t, all, 1)
	assert.Contains(t, all[0].Body, "Your document")
}

func TestAllTriggerNamesRegistered(t *testing.T) {
	triggers := NewTriggers(NewStore(), nil, nil)
	want := []string{
		TriggerDocumentUploaded, TriggerTaxDeadlineReminder, TriggerRefundProcessed,
		TriggerDocumentRejected, TriggerAppointmentScheduled, TriggerWelcomeMessage,
		TriggerFormSubmitted, TriggerReviewComplete, TriggerScheduleWeeklyReminder,
		TriggerScheduleDeadlineReminder, TriggerAdminStatusChanged,
		TriggerAdminDraftDocumentUploaded, TriggerAdminFinalDocumentUploaded,
	}
	assert.ElementsMatch(t, want, triggers.Names())
}

func TestServiceBridgesPollerEvents(t *testing.T) {
	store := NewStore()
	triggers := NewTriggers(store, nil, nil)
	emitter := events.NewEmitter()
	svc := NewService(emitter, triggers, nil)
	defer svc.Close()

	emitter.Emit(events.TypeAdminStatusChanged, events.AdminStatusData{
		FormID: "F1", OldStatus: "submitted", NewStatus: "under_review",
	})
	emitter.Emit(events.TypeAdminDocumentUploaded, events.AdminDocumentData{
		FormID: "F1", DocumentID: "a1", Category: backend.AdminCategoryDraftReturn, Name: "draft.pdf",
	})
	emitter.Emit(events.TypeAdminDocumentUploaded, events.AdminDocumentData{
		FormID: "F1", DocumentID: "a2", Category: "internal_notes", Name: "notes.txt",
	})
	emitter.Emit(events.TypeDocumentUploaded, events.DocumentData{DocumentID: "d1", Name: "w2.pdf"})
	emitter.Emit(events.TypeDocumentFailed, events.DocumentData{DocumentID: "d2", Name: "bad.pdf", Error: "x"})
	emitter.Emit(events.TypeFormSubmitted, events.SubmissionData{TaxFormID: "T1"})

	all := store.All()
	require.Len(t, all, 5, "internal_notes category does not notify")

	types := make(map[string]int)
	for _, n := range all {
		types[n.Type]++
	}
	assert.Equal(t, 1, types[TriggerAdminStatusChanged])
	assert.Equal(t, 1, types[TriggerAdminDraftDocumentUploaded])
	assert.Equal(t, 1, types[TriggerDocumentUploaded])
	assert.Equal(t, 1, types[TriggerDocumentRejected])
	assert.Equal(t, 1, types[TriggerFormSubmitted])
}

func TestServiceCloseDetaches(t *testing.T) {
	store := NewStore()
	emitter := events.NewEmitter()
	svc := NewService(emitter, NewTriggers(store, nil, nil), nil)

	svc.Close()
	emitter.Emit(events.TypeFormSubmitted, events.SubmissionData{TaxFormID: "T1"})
	assert.Empty(t, store.All())
}

func TestSendDeliversThenStores(t *testing.T) {
	store := NewStore()
	rec := NewRecordingNotifier()
	tr := NewTriggers(store, rec, nil)

	stored, err := tr.Send(context.Background(), Notification{Title: "hello", Type: "welcomeMessage"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	require.Len(t, rec.Sent(), 1)
	require.Len(t, store.All(), 1)
	assert.Equal(t, 1, store.UnreadCount())
}

func TestSendFailureSkipsStore(t *testing.T) {
	store := NewStore()
	tr := NewTriggers(store, failingNotifier{}, nil)

	_, err := tr.Send(context.Background(), Notification{Title: "hello"})
	require.Error(t, err)
	assert.Empty(t, store.All(), "failed platform sends never reach the in-app list")
}

func TestScheduleDoesNotTouchStore(t *testing.T) {
	store := NewStore()
	rec := NewRecordingNotifier()
	tr := NewTriggers(store, rec, nil)

	at := time.Now().Add(24 * time.Hour)
	require.NoError(t, tr.Schedule(context.Background(), Notification{Title: "deadline"}, at))

	require.Len(t, rec.Scheduled(), 1)
	assert.Equal(t, at, rec.Scheduled()[0].At)
	assert.Empty(t, store.All())
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, Notification) error {
	return errors.New("platform unavailable")
}

func (failingNotifier) Schedule(context.Context, Notification, time.Time) error {
	return errors.New("platform unavailable")
}
