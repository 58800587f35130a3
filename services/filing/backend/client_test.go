// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormHistoryUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tax-forms/history", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true,"data":[
			{"id":"F2","status":"approved","taxYear":2026},
			{"id":"F1","status":"rejected","taxYear":2025}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	forms, err := c.FormHistory(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "F2", forms[0].ID, "order preserved, newest first")
	assert.Equal(t, "approved", forms[0].Status)
}

func TestTrailingSlashBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tax-forms/history", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	_, err := c.FormHistory(context.Background(), "tok")
	require.NoError(t, err)
}

func TestErrorFieldExtraction(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"token expired"}`, "token expired"},
		{"message field", `{"message":"form not found"}`, "form not found"},
		{"error preferred over message", `{"error":"primary","message":"secondary"}`, "primary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).FormHistory(context.Background(), "tok")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestErrorWithoutBodyUsesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FormHistory(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFormDetailEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id":"a/b","status":"submitted"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FormDetail(context.Background(), "a/b", "tok")
	require.NoError(t, err)
	assert.Equal(t, "/tax-forms/a%2Fb", gotPath)
}

func TestEmptyTokenOmitsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FormHistory(context.Background(), "")
	require.NoError(t, err)
}

func TestSupportAndFeedbackPassThroughs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/support/submit", "/feedback/submit", "/appointments/submit", "/appointments/cancel":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
		case "/support/history":
			w.Write([]byte(`{"data":[{"id":"s1","subject":"help","status":"open"}]}`))
		case "/feedback/history":
			w.Write([]byte(`{"data":[{"id":"f1","rating":5}]}`))
		case "/appointments/history":
			w.Write([]byte(`{"data":[{"id":"a1","date":"2026-09-04","slot":"10:00"}]}`))
		case "/appointments/available-slots":
			assert.Equal(t, "2026-09-04", r.URL.Query().Get("date"))
			w.Write([]byte(`{"data":["10:00","14:30"]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewClient(srv.URL)

	require.NoError(t, c.SubmitSupportRequest(ctx, SupportRequest{Subject: "help", Category: "general", Message: "hi"}, "tok"))
	tickets, err := c.SupportHistory(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "open", tickets[0].Status)

	require.NoError(t, c.SubmitAppointment(ctx, AppointmentRequest{Date: "2026-09-04", Slot: "10:00"}, "tok"))
	appts, err := c.AppointmentHistory(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, appts, 1)

	slots, err := c.AvailableSlots(ctx, "2026-09-04", "tok")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "14:30"}, slots)

	require.NoError(t, c.CancelAppointment(ctx, "a1", "tok"))

	require.NoError(t, c.SubmitFeedback(ctx, FeedbackRequest{Rating: 5, Message: "great"}, "tok"))
	fb, err := c.FeedbackHistory(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, fb, 1)
	assert.Equal(t, 5, fb[0].Rating)
}

func TestRateLimiterHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	// Zero-rate limiter: the first call consumes the burst token, the
	// second blocks until the context dies.
	c := NewClient(srv.URL, WithRateLimit(0, 1))
	ctx := context.Background()
	_, err := c.FormHistory(ctx, "tok")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.FormHistory(cancelled, "tok")
	assert.Error(t, err)
}
