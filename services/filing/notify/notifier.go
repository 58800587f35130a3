// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"context"
	"sync"
	"time"
)

// Notifier is the platform notification primitive. Implementations wrap
// whatever the host OS offers; this package only decides what to send.
type Notifier interface {
	// Send delivers a notification immediately.
	Send(ctx context.Context, n Notification) error
	// Schedule delivers a notification at a future time.
	Schedule(ctx context.Context, n Notification, at time.Time) error
}

// NopNotifier discards everything. Default when no platform integration
// is wired.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, Notification) error { return nil }

func (NopNotifier) Schedule(context.Context, Notification, time.Time) error { return nil }

// RecordingNotifier captures calls for tests.
type RecordingNotifier struct {
	mu        sync.Mutex
	sent      []Notification
	scheduled []ScheduledNotification
}

// ScheduledNotification is one captured Schedule call.
type ScheduledNotification struct {
	Notification Notification
	At           time.Time
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (r *RecordingNotifier) Send(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *RecordingNotifier) Schedule(_ context.Context, n Notification, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, ScheduledNotification{Notification: n, At: at})
	return nil
}

// Sent returns a copy of immediate sends in order.
func (r *RecordingNotifier) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Scheduled returns a copy of scheduled sends in order.
func (r *RecordingNotifier) Scheduled() []ScheduledNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ScheduledNotification, len(r.scheduled))
	copy(out, r.scheduled)
	return out
}
