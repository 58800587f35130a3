// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler processes one event.
type Handler func(event Event)

// subscription pairs a handler with its type filter.
type subscription struct {
	id      string
	handler Handler
	types   []Type
}

// Emitter broadcasts events to subscribers and keeps a bounded replay
// buffer so a late subscriber (the UI attaching after startup) can catch up.
//
// Thread Safety: Emitter is safe for concurrent use.
type Emitter struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	buffer        []Event
	bufferSize    int
	log           *slog.Logger
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithBufferSize overrides the replay buffer capacity (default 256).
func WithBufferSize(n int) Option {
	return func(e *Emitter) { e.bufferSize = n }
}

// WithLogger sets the logger used for handler panic reports.
func WithLogger(log *slog.Logger) Option {
	return func(e *Emitter) { e.log = log }
}

// NewEmitter creates an event emitter.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		subscriptions: make(map[string]*subscription),
		bufferSize:    256,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.buffer = make([]Event, 0, e.bufferSize)
	return e
}

// Subscribe registers a handler for the given types (none means all).
// It returns a subscription id for Unsubscribe.
func (e *Emitter) Subscribe(handler Handler, types ...Type) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &subscription{id: uuid.NewString(), handler: handler, types: types}
	e.subscriptions[sub.id] = sub
	return sub.id
}

// Unsubscribe removes a subscription. It reports whether the id was known.
func (e *Emitter) Unsubscribe(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.subscriptions[id]; !ok {
		return false
	}
	delete(e.subscriptions, id)
	return true
}

// Emit broadcasts an event to all matching subscribers and buffers it.
// Handlers run synchronously on the caller's goroutine; a panicking
// handler is logged and skipped, never propagated.
func (e *Emitter) Emit(eventType Type, data any) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	e.mu.Lock()
	if len(e.buffer) >= e.bufferSize {
		e.buffer = e.buffer[1:]
	}
	e.buffer = append(e.buffer, event)
	subs := make([]*subscription, 0, len(e.subscriptions))
	for _, sub := range e.subscriptions {
		subs = append(subs, sub)
	}
	e.mu.Unlock()

	for _, sub := range subs {
		if matches(sub, event.Type) {
			e.invoke(sub.handler, event)
		}
	}
}

func (e *Emitter) invoke(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("event handler panicked",
				"event_type", event.Type,
				"event_id", event.ID,
				"panic", r,
			)
		}
	}()
	handler(event)
}

func matches(sub *subscription, t Type) bool {
	if len(sub.types) == 0 {
		return true
	}
	for _, st := range sub.types {
		if st == t {
			return true
		}
	}
	return false
}

// Buffer returns a copy of the buffered events, oldest first.
func (e *Emitter) Buffer() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Event, len(e.buffer))
	copy(out, e.buffer)
	return out
}

// BufferSince returns buffered events newer than the given time.
func (e *Emitter) BufferSince(since time.Time) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Event
	for _, ev := range e.buffer {
		if ev.Timestamp.After(since) {
			out = append(out, ev)
		}
	}
	return out
}

// SubscriptionCount returns the number of active subscriptions.
func (e *Emitter) SubscriptionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subscriptions)
}

// Recorder collects events for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Handle appends the event; pass it to Emitter.Subscribe.
func (r *Recorder) Handle(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns recorded events of one type.
func (r *Recorder) ByType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Count returns the number of recorded events.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
