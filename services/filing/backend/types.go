// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import "github.com/alpinetax/filingkit/services/filing"

// SubmissionDocument is one completed document in the submission payload.
type SubmissionDocument struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
	Category   string `json:"category"`
	RemotePath string `json:"remotePath" validate:"required"`
	PublicURL  string `json:"publicUrl" validate:"required,url"`
}

// SubmissionPayload is the body of POST /tax-forms/submit.
type SubmissionPayload struct {
	SSN                     string                          `json:"ssn" validate:"required"`
	Documents               []SubmissionDocument            `json:"documents" validate:"min=1,dive"`
	Dependents              []filing.Dependent              `json:"dependents"`
	AdditionalIncomeSources []filing.AdditionalIncomeSource `json:"additionalIncomeSources"`
	FormType                string                          `json:"formType" validate:"required"`
	TaxYear                 int                             `json:"taxYear" validate:"required"`
	FilingStatus            string                          `json:"filingStatus" validate:"required"`
}

// SubmitResult is the response of POST /tax-forms/submit.
type SubmitResult struct {
	TaxFormID string `json:"taxFormId"`
	Data      struct {
		DocumentCount  int `json:"documentCount"`
		DependentCount int `json:"dependentCount"`
	} `json:"data"`
}

// AdminDocument is a staff-uploaded document attached to a form.
type AdminDocument struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	UploadedAt string `json:"uploadedAt"`
	URL        string `json:"url,omitempty"`
}

// Admin document categories that raise user notifications.
const (
	AdminCategoryDraftReturn = "draft_return"
	AdminCategoryFinalReturn = "final_return"
)

// FormSummary is one entry of GET /tax-forms/history. The backend returns
// newest first; the poller treats index 0 as the current form.
type FormSummary struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	SubmittedAt    string          `json:"submittedAt,omitempty"`
	TaxYear        int             `json:"taxYear,omitempty"`
	AdminDocuments []AdminDocument `json:"adminDocuments,omitempty"`
}

// historyResponse wraps GET /tax-forms/history.
type historyResponse struct {
	Success bool          `json:"success"`
	Data    []FormSummary `json:"data"`
}

// SupportRequest is the body of POST /support/submit.
type SupportRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Category string `json:"category" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SupportTicket is one entry of GET /support/history.
type SupportTicket struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Category  string `json:"category"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// AppointmentRequest is the body of POST /appointments/submit.
type AppointmentRequest struct {
	Date    string `json:"date" validate:"required"`
	Slot    string `json:"slot" validate:"required"`
	Topic   string `json:"topic"`
	Notes   string `json:"notes,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Appointment is one entry of GET /appointments/history.
type Appointment struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Slot   string `json:"slot"`
	Topic  string `json:"topic"`
	Status string `json:"status"`
}

// FeedbackRequest is the body of POST /feedback/submit.
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Message string `json:"message"`
}

// FeedbackEntry is one entry of GET /feedback/history.
type FeedbackEntry struct {
	ID        string `json:"id"`
	Rating    int    `json:"rating"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}
