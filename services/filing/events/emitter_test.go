// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesMatchingTypes(t *testing.T) {
	e := NewEmitter()
	rec := NewRecorder()
	e.Subscribe(rec.Handle, TypeDocumentUploaded)

	e.Emit(TypeDocumentUploaded, DocumentData{DocumentID: "d1"})
	e.Emit(TypeFormSubmitted, SubmissionData{TaxFormID: "T1"})

	require.Equal(t, 1, rec.Count())
	got := rec.Events()[0]
	assert.Equal(t, TypeDocumentUploaded, got.Type)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestSubscribeWithoutTypesReceivesAll(t *testing.T) {
	e := NewEmitter()
	rec := NewRecorder()
	e.Subscribe(rec.Handle)

	e.Emit(TypeDocumentUploaded, nil)
	e.Emit(TypeAdminStatusChanged, nil)
	e.Emit(TypeFormSubmitted, nil)

	assert.Equal(t, 3, rec.Count())
}

func TestUnsubscribe(t *testing.T) {
	e := NewEmitter()
	rec := NewRecorder()
	id := e.Subscribe(rec.Handle)
	require.Equal(t, 1, e.SubscriptionCount())

	assert.True(t, e.Unsubscribe(id))
	assert.False(t, e.Unsubscribe(id), "second unsubscribe reports unknown")

	e.Emit(TypeDocumentUploaded, nil)
	assert.Zero(t, rec.Count())
}

func TestPanickingHandlerIsContained(t *testing.T) {
	e := NewEmitter()
	rec := NewRecorder()
	e.Subscribe(func(Event) { panic("broken subscriber") })
	e.Subscribe(rec.Handle)

	assert.NotPanics(t, func() {
		e.Emit(TypeDocumentFailed, DocumentData{DocumentID: "d1"})
	})
	assert.Equal(t, 1, rec.Count(), "other subscribers still receive the event")
}

func TestBufferBounded(t *testing.T) {
	e := NewEmitter(WithBufferSize(3))
	for i := 0; i < 5; i++ {
		e.Emit(TypeDocumentUploaded, i)
	}

	buf := e.Buffer()
	require.Len(t, buf, 3)
	assert.Equal(t, 2, buf[0].Data, "oldest events were evicted")
	assert.Equal(t, 4, buf[2].Data)
}

func TestBufferSince(t *testing.T) {
	e := NewEmitter()
	e.Emit(TypeDocumentUploaded, "old")
	cut := time.Now()
	time.Sleep(time.Millisecond)
	e.Emit(TypeDocumentUploaded, "new")

	recent := e.BufferSince(cut)
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].Data)
}

func TestRecorderByType(t *testing.T) {
	e := NewEmitter()
	rec := NewRecorder()
	e.Subscribe(rec.Handle)

	e.Emit(TypeDocumentUploaded, nil)
	e.Emit(TypeDocumentFailed, nil)
	e.Emit(TypeDocumentUploaded, nil)

	assert.Len(t, rec.ByType(TypeDocumentUploaded), 2)
	assert.Len(t, rec.ByType(TypeDocumentFailed), 1)
	assert.Empty(t, rec.ByType(TypeFormSubmitted))
}
