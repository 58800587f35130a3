// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package submit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
)

// Fixed payload fields. The product only files individual 1040 returns for
// the current year; the backend rejects anything else.
const (
	formType     = "1040"
	filingStatus = "single"
)

// payloadValidate checks the structural invariants of the outgoing payload
// (completed documents carry both remote fields, at least one document).
// ValidateFormData produces the user-facing messages; this is the last
// line of defense before bytes leave the device.
var payloadValidate = validator.New()

// Submitter posts completed returns to the backend.
type Submitter struct {
	backend *backend.Client
	emitter *events.Emitter
	log     *slog.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(client *backend.Client, emitter *events.Emitter, log *slog.Logger) *Submitter {
	if log == nil {
		log = slog.Default()
	}
	return &Submitter{backend: client, emitter: emitter, log: log}
}

// PrepareDocumentsForSubmission flattens all fixed-category and
// income-source documents, keeping only completed entries that carry both
// a remote path and a public URL.
func PrepareDocumentsForSubmission(form filing.TaxFormData) []backend.SubmissionDocument {
	var out []backend.SubmissionDocument
	for _, doc := range form.AllDocuments() {
		if !doc.Submittable() {
			continue
		}
		out = append(out, backend.SubmissionDocument{
			ID:         doc.ID,
			Name:       doc.Name,
			MimeType:   doc.MimeType,
			SizeBytes:  doc.SizeBytes,
			Category:   string(doc.Category),
			RemotePath: doc.RemotePath,
			PublicURL:  doc.PublicURL,
		})
	}
	return out
}

// prepareDependents drops dependents with blank name, age, or relationship.
func prepareDependents(dependents []filing.Dependent) []filing.Dependent {
	var out []filing.Dependent
	for _, d := range dependents {
		if d.Name == "" || d.Age == "" || d.Relationship == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Submit assembles and posts the return. Backend and network errors are
// propagated to the caller unmodified; nothing is partially submitted on a
// validation failure.
func (s *Submitter) Submit(ctx context.Context, form filing.TaxFormData, dependents []filing.Dependent, token string) (backend.SubmitResult, error) {
	payload := backend.SubmissionPayload{
		SSN:                     form.SocialSecurityNumber,
		Documents:               PrepareDocumentsForSubmission(form),
		Dependents:              prepareDependents(dependents),
		AdditionalIncomeSources: form.AdditionalIncomeSources,
		FormType:                formType,
		TaxYear:                 time.Now().Year(),
		FilingStatus:            filingStatus,
	}

	if err := payloadValidate.Struct(payload); err != nil {
		return backend.SubmitResult{}, fmt.Errorf("submission payload invalid: %w", err)
	}

	result, err := s.backend.SubmitTaxForm(ctx, payload, token)
	if err != nil {
		return backend.SubmitResult{}, err
	}

	s.log.Info("tax form submitted",
		"tax_form_id", result.TaxFormID,
		"documents", result.Data.DocumentCount,
		"dependents", result.Data.DependentCount,
	)
	s.emitter.Emit(events.TypeFormSubmitted, events.SubmissionData{
		TaxFormID:      result.TaxFormID,
		DocumentCount:  result.Data.DocumentCount,
		DependentCount: result.Data.DependentCount,
	})
	return result, nil
}
