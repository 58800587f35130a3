// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
)

func completedDoc(id string) filing.UploadedDocument {
	return filing.UploadedDocument{
		ID: id, Name: id + ".pdf", Status: filing.DocumentCompleted,
		Category:   filing.CategoryW2Forms,
		RemotePath: "users/u/w2Forms/" + id + "/" + id + ".pdf",
		PublicURL:  "https://storage.example/" + id,
	}
}

func readyForm() filing.TaxFormData {
	form := filing.NewTaxFormData()
	form.SocialSecurityNumber = "123-45-6789"
	form.W2Forms = []filing.UploadedDocument{completedDoc("d1")}
	return form
}

func TestValidateFormDataReady(t *testing.T) {
	res := ValidateFormData(readyForm())
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidateFormDataSSN(t *testing.T) {
	tests := []struct {
		name    string
		ssn     string
		wantErr string
	}{
		{"missing", "", "Social Security Number is required"},
		{"whitespace only", "   ", "Social Security Number is required"},
		{"malformed", "12-345-678", "Social Security Number must be in the format XXX-XX-XXXX"},
		{"too long", "123-45-67890", "Social Security Number must be in the format XXX-XX-XXXX"},
		{"letters", "abc-de-fghi", "Social Security Number must be in the format XXX-XX-XXXX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := readyForm()
			form.SocialSecurityNumber = tt.ssn
			res := ValidateFormData(form)
			assert.False(t, res.IsValid)
			assert.Contains(t, res.Errors, tt.wantErr)
		})
	}

	// Both dashed and undashed SSNs are accepted.
	for _, ssn := range []string{"123-45-6789", "123456789", " 123-45-6789 "} {
		form := readyForm()
		form.SocialSecurityNumber = ssn
		assert.True(t, ValidateFormData(form).IsValid, "ssn %q", ssn)
	}
}

func TestValidateFormDataDocuments(t *testing.T) {
	form := readyForm()
	form.W2Forms = nil
	res := ValidateFormData(form)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "At least one document must be uploaded before submitting")

	// A completed document nested under an income source counts.
	form.AdditionalIncomeSources = []filing.AdditionalIncomeSource{
		{ID: "src", Documents: []filing.UploadedDocument{completedDoc("n1")}},
	}
	assert.True(t, ValidateFormData(form).IsValid)
}

func TestValidateFormDataPendingAndFailed(t *testing.T) {
	form := readyForm()
	form.Medical = []filing.UploadedDocument{
		{ID: "p1", Status: filing.DocumentUploading},
		{ID: "p2", Status: filing.DocumentUploading},
		{ID: "f1", Status: filing.DocumentError},
	}
	res := ValidateFormData(form)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Errors, "2 document(s) are still uploading, please wait for them to finish")
	assert.Contains(t, res.Errors, "1 document(s) failed to upload, please remove or replace them")
}

func TestPrepareDocumentsForSubmission(t *testing.T) {
	form := readyForm()
	form.Medical = []filing.UploadedDocument{
		{ID: "pending", Status: filing.DocumentUploading},
		{ID: "failed", Status: filing.DocumentError},
	}
	form.AdditionalIncomeSources = []filing.AdditionalIncomeSource{
		{ID: "src", Documents: []filing.UploadedDocument{completedDoc("nested")}},
	}

	docs := PrepareDocumentsForSubmission(form)
	require.Len(t, docs, 2, "only submittable documents are included")
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "nested", docs[1].ID)
	assert.NotEmpty(t, docs[0].RemotePath)
	assert.NotEmpty(t, docs[0].PublicURL)
}

func TestPrepareDependentsDropsBlankFields(t *testing.T) {
	deps := prepareDependents([]filing.Dependent{
		{ID: "1", Name: "Ada", Age: "7", Relationship: "daughter"},
		{ID: "2", Name: "", Age: "3", Relationship: "son"},
		{ID: "3", Name: "Sam", Age: "", Relationship: "son"},
		{ID: "4", Name: "Kim", Age: "9", Relationship: ""},
	})
	require.Len(t, deps, 1)
	assert.Equal(t, "Ada", deps[0].Name)
}

func TestSubmitPostsPayloadAndEmits(t *testing.T) {
	var received backend.SubmissionPayload
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tax-forms/submit", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"taxFormId":"T1","data":{"documentCount":1,"dependentCount":1}}`))
	}))
	defer srv.Close()

	emitter := events.NewEmitter()
	recorder := events.NewRecorder()
	emitter.Subscribe(recorder.Handle)

	s := NewSubmitter(backend.NewClient(srv.URL), emitter, nil)
	deps := []filing.Dependent{
		{ID: "1", Name: "Ada", Age: "7", Relationship: "daughter"},
		{ID: "2"}, // blank, dropped
	}
	result, err := s.Submit(context.Background(), readyForm(), deps, "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "T1", result.TaxFormID)
	assert.Equal(t, "Bearer tok-123", authHeader)
	assert.Equal(t, "123-45-6789", received.SSN)
	assert.Equal(t, "1040", received.FormType)
	assert.Equal(t, "single", received.FilingStatus)
	assert.Equal(t, time.Now().Year(), received.TaxYear)
	require.Len(t, received.Documents, 1)
	require.Len(t, received.Dependents, 1)

	submitted := recorder.ByType(events.TypeFormSubmitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, "T1", submitted[0].Data.(events.SubmissionData).TaxFormID)
}

func TestSubmitRejectsPayloadWithoutDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend must not be called for an invalid payload")
	}))
	defer srv.Close()

	s := NewSubmitter(backend.NewClient(srv.URL), events.NewEmitter(), nil)
	form := readyForm()
	form.W2Forms = nil

	_, err := s.Submit(context.Background(), form, nil, "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submission payload invalid")
}

func TestSubmitPropagatesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"a return for this year already exists"}`))
	}))
	defer srv.Close()

	emitter := events.NewEmitter()
	recorder := events.NewRecorder()
	emitter.Subscribe(recorder.Handle)

	s := NewSubmitter(backend.NewClient(srv.URL), emitter, nil)
	_, err := s.Submit(context.Background(), readyForm(), nil, "tok")
	require.Error(t, err)
	assert.Equal(t, "a return for this year already exists", err.Error(), "backend message passes through unmodified")
	assert.Zero(t, recorder.Count(), "no event on failure")
}
