// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package notify holds the in-app notification list and the canned
// builders ("triggers") that produce entries from app and poller events.
package notify

import (
	"fmt"
	"sync"
	"time"
)

// Notification is one user-visible entry. Data is a free-form side
// payload for the UI (form ids, document names).
type Notification struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Read      bool           `json:"read"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// Store is the session-scoped notification list, newest first. It is
// deliberately not persisted; restart starts empty.
//
// Thread Safety: Store is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	items  []Notification
	unread int
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Add prepends a notification, filling in id and timestamp when the
// caller left them zero. Read defaults to false (the bool zero value);
// a caller-supplied true is kept. Returns the stored value.
func (s *Store) Add(n Notification) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.Timestamp.IsZero() {
		n.Timestamp = s.now()
	}
	if n.ID == "" {
		n.ID = fmt.Sprintf("%d", n.Timestamp.UnixNano())
	}

	s.items = append([]Notification{n}, s.items...)
	s.recount()
	return n
}

// All returns a copy of the list, newest first.
func (s *Store) All() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

// UnreadCount returns the number of unread entries.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// MarkRead flips one entry to read. Unknown ids are a no-op.
func (s *Store) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			break
		}
	}
	s.recount()
}

// MarkAllRead flips every entry to read. Idempotent.
func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.recount()
}

// Remove deletes one entry. Unknown ids are a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.recount()
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.recount()
}

// recount recomputes the unread total from the list rather than tracking
// deltas, so it can never drift. Caller holds mu.
func (s *Store) recount() {
	n := 0
	for i := range s.items {
		if !s.items[i].Read {
			n++
		}
	}
	s.unread = n
}
