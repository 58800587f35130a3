// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage persists wizard snapshots and admin-poller markers in the
// local BadgerDB. All wizard keys are namespaced by user id so two accounts
// on one device never see each other's data; admin markers are keyed by
// form id and shared across the device.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/alpinetax/filingkit/services/filing"
)

// SnapshotVersion is the current schema version of persisted snapshots.
const SnapshotVersion = 1

// Snapshot is the durable form of the wizard state.
type Snapshot struct {
	Version            int                `json:"version"`
	UserID             string             `json:"userId"`
	LastSaved          time.Time          `json:"lastSaved"`
	FormData           filing.TaxFormData `json:"formData"`
	Dependents         []filing.Dependent `json:"dependents"`
	NumberOfDependents int                `json:"numberOfDependents"`
	CurrentStep        int                `json:"currentStep"`
}

// AdminDocumentRef identifies one admin-uploaded document for diffing. A
// document is "new" when its (id, uploadedAt) pair was not seen before.
type AdminDocumentRef struct {
	ID         string `json:"id"`
	UploadedAt string `json:"uploadedAt"`
}

// Store reads and writes filing state in BadgerDB.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// NewStore wraps an opened database. The caller keeps ownership of db.
func NewStore(db *badger.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

// Key layout. The wizard keys mirror the original client's storage
// namespace so migrated devices keep their drafts.
func formDataKey(userID string) []byte {
	return []byte("tax_form_data_" + userID)
}
func dependentsKey(userID string) []byte {
	return []byte("dependents_" + userID)
}
func dependentCountKey(userID string) []byte {
	return []byte("number_of_dependents_" + userID)
}
func currentStepKey(userID string) []byte {
	return []byte("current_step_" + userID)
}
func statusMarkerKey(formID string) []byte {
	return []byte("admin_status_" + formID)
}
func documentsMarkerKey(formID string) []byte {
	return []byte("admin_documents_" + formID)
}

// formDataEnvelope is what lives under tax_form_data_{u}: the form plus the
// snapshot metadata used for the cross-check on load.
type formDataEnvelope struct {
	Version   int                `json:"version"`
	UserID    string             `json:"userId"`
	LastSaved time.Time          `json:"lastSaved"`
	FormData  filing.TaxFormData `json:"formData"`
}

// SaveSnapshot writes the full wizard state for a user in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, userID string, snap Snapshot) error {
	if userID == "" {
		return filing.ErrNoUser
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snap.Version = SnapshotVersion
	snap.UserID = userID
	if snap.LastSaved.IsZero() {
		snap.LastSaved = time.Now()
	}

	env := formDataEnvelope{
		Version:   snap.Version,
		UserID:    snap.UserID,
		LastSaved: snap.LastSaved,
		FormData:  snap.FormData,
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, formDataKey(userID), env); err != nil {
			return err
		}
		if err := setJSON(txn, dependentsKey(userID), snap.Dependents); err != nil {
			return err
		}
		if err := setJSON(txn, dependentCountKey(userID), snap.NumberOfDependents); err != nil {
			return err
		}
		return setJSON(txn, currentStepKey(userID), snap.CurrentStep)
	})
}

// LoadSnapshot returns the persisted wizard state for a user, or nil when
// nothing usable is stored. A userId mismatch in the stored envelope, a
// decode failure, or a read failure are all treated as "no data": the
// wizard starts fresh rather than erroring on a corrupted draft.
func (s *Store) LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if userID == "" {
		return nil, filing.ErrNoUser
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap *Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var env formDataEnvelope
		found, err := getJSON(txn, formDataKey(userID), &env)
		if err != nil || !found {
			return err
		}
		if env.UserID != userID {
			s.log.Warn("snapshot owner mismatch, treating as absent",
				"expected", userID, "stored", env.UserID)
			return nil
		}

		loaded := Snapshot{
			Version:   env.Version,
			UserID:    env.UserID,
			LastSaved: env.LastSaved,
			FormData:  env.FormData,
		}
		if _, err := getJSON(txn, dependentsKey(userID), &loaded.Dependents); err != nil {
			return err
		}
		if _, err := getJSON(txn, dependentCountKey(userID), &loaded.NumberOfDependents); err != nil {
			return err
		}
		if _, err := getJSON(txn, currentStepKey(userID), &loaded.CurrentStep); err != nil {
			return err
		}
		snap = &loaded
		return nil
	})
	if err != nil {
		s.log.Error("snapshot read failed, treating as absent", "error", err)
		return nil, nil
	}
	return snap, nil
}

// ClearSnapshot removes all wizard keys for a user. Called after a
// successful submission.
func (s *Store) ClearSnapshot(ctx context.Context, userID string) error {
	if userID == "" {
		return filing.ErrNoUser
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{
			formDataKey(userID),
			dependentsKey(userID),
			dependentCountKey(userID),
			currentStepKey(userID),
		} {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// StatusMarker returns the last-seen backend status for a form. The second
// return value is false on first sight.
func (s *Store) StatusMarker(ctx context.Context, formID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var status string
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, statusMarkerKey(formID), &status)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("read status marker: %w", err)
	}
	return status, found, nil
}

// SetStatusMarker overwrites the last-seen status for a form.
func (s *Store) SetStatusMarker(ctx context.Context, formID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, statusMarkerKey(formID), status)
	})
}

// DocumentsMarker returns the last-seen admin document refs for a form.
func (s *Store) DocumentsMarker(ctx context.Context, formID string) ([]AdminDocumentRef, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var refs []AdminDocumentRef
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, documentsMarkerKey(formID), &refs)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read documents marker: %w", err)
	}
	return refs, found, nil
}

// SetDocumentsMarker overwrites the admin document refs for a form.
func (s *Store) SetDocumentsMarker(ctx context.Context, formID string, refs []AdminDocumentRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, documentsMarkerKey(formID), refs)
	})
}

// ClearMarkers deletes both admin markers for a form.
func (s *Store) ClearMarkers(ctx context.Context, formID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{statusMarkerKey(formID), documentsMarkerKey(formID)} {
			if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

// getJSON reads and decodes a key. Missing keys return (false, nil).
func getJSON(txn *badger.Txn, key []byte, out any) (bool, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}
