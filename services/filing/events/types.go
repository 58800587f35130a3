// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package events is the typed event bus connecting the filing services.
//
// The upload coordinator and the admin poller publish; the notification
// service (and the mobile shell, through the HTTP surface) subscribe.
// Publishing is synchronous and handler panics are contained, so a broken
// subscriber cannot take down an upload or a poll cycle.
package events

import "time"

// Type identifies a kind of event.
type Type string

const (
	// TypeAdminStatusChanged fires when a submitted form's backend status
	// differs from the last-seen durable marker.
	TypeAdminStatusChanged Type = "admin.status_changed"

	// TypeAdminDocumentUploaded fires once per newly observed
	// admin-uploaded document.
	TypeAdminDocumentUploaded Type = "admin.document_uploaded"

	// TypeDocumentUploaded fires when a user upload completes.
	TypeDocumentUploaded Type = "document.uploaded"

	// TypeDocumentFailed fires when a user upload ends in error.
	TypeDocumentFailed Type = "document.failed"

	// TypeFormSubmitted fires after a successful backend submission.
	TypeFormSubmitted Type = "form.submitted"
)

// Event is one published occurrence.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// AdminStatusData accompanies TypeAdminStatusChanged.
type AdminStatusData struct {
	FormID    string `json:"formId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// AdminDocumentData accompanies TypeAdminDocumentUploaded. Category is the
// backend's vocabulary (draft_return, final_return, ...), not a wizard
// category.
type AdminDocumentData struct {
	FormID     string `json:"formId"`
	DocumentID string `json:"documentId"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	UploadedAt string `json:"uploadedAt"`
}

// DocumentData accompanies TypeDocumentUploaded and TypeDocumentFailed.
type DocumentData struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	Error      string `json:"error,omitempty"`
}

// SubmissionData accompanies TypeFormSubmitted.
type SubmissionData struct {
	TaxFormID      string `json:"taxFormId"`
	DocumentCount  int    `json:"documentCount"`
	DependentCount int    `json:"dependentCount"`
}
