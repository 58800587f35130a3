// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package backend is the REST client for the filing backend. The backend
// is an opaque service; this package only shapes requests and surfaces its
// error messages verbatim.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// requestTimeout is the fixed per-call timeout. Calls past it fail as a
// network error.
const requestTimeout = 10 * time.Second

// Client talks to the filing backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit overrides the client-side request budget.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// NewClient creates a backend client. The default limiter allows 5 req/s
// with a burst of 10, which keeps the pollers polite without ever blocking
// interactive calls in practice.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(5, 10),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError mirrors the backend's error envelope; either field may be set.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do runs one request. Non-2xx responses become a single error carrying
// the body's error/message field, or the HTTP status when there is none.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil {
			if apiErr.Error != "" {
				return fmt.Errorf("%s", apiErr.Error)
			}
			if apiErr.Message != "" {
				return fmt.Errorf("%s", apiErr.Message)
			}
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// SubmitTaxForm posts a completed submission payload.
func (c *Client) SubmitTaxForm(ctx context.Context, payload SubmissionPayload, token string) (SubmitResult, error) {
	var result SubmitResult
	if err := c.do(ctx, http.MethodPost, "/tax-forms/submit", token, payload, &result); err != nil {
		return SubmitResult{}, err
	}
	return result, nil
}

// FormHistory lists the user's submitted forms, newest first.
func (c *Client) FormHistory(ctx context.Context, token string) ([]FormSummary, error) {
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/tax-forms/history", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FormDetail fetches a single form.
func (c *Client) FormDetail(ctx context.Context, formID, token string) (FormSummary, error) {
	var form FormSummary
	if err := c.do(ctx, http.MethodGet, "/tax-forms/"+url.PathEscape(formID), token, nil, &form); err != nil {
		return FormSummary{}, err
	}
	return form, nil
}

// SubmitSupportRequest files a support ticket.
func (c *Client) SubmitSupportRequest(ctx context.Context, req SupportRequest, token string) error {
	return c.do(ctx, http.MethodPost, "/support/submit", token, req, nil)
}

// SupportHistory lists the user's support tickets.
func (c *Client) SupportHistory(ctx context.Context, token string) ([]SupportTicket, error) {
	var resp struct {
		Data []SupportTicket `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/support/history", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SubmitAppointment books an appointment.
func (c *Client) SubmitAppointment(ctx context.Context, req AppointmentRequest, token string) error {
	return c.do(ctx, http.MethodPost, "/appointments/submit", token, req, nil)
}

// AppointmentHistory lists the user's appointments.
func (c *Client) AppointmentHistory(ctx context.Context, token string) ([]Appointment, error) {
	var resp struct {
		Data []Appointment `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/appointments/history", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AvailableSlots lists open appointment slots for a date (YYYY-MM-DD).
func (c *Client) AvailableSlots(ctx context.Context, date, token string) ([]string, error) {
	var resp struct {
		Data []string `json:"data"`
	}
	path := "/appointments/available-slots?date=" + url.QueryEscape(date)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CancelAppointment cancels a booked appointment.
func (c *Client) CancelAppointment(ctx context.Context, appointmentID, token string) error {
	body := map[string]string{"appointmentId": appointmentID}
	return c.do(ctx, http.MethodPost, "/appointments/cancel", token, body, nil)
}

// SubmitFeedback posts app feedback.
func (c *Client) SubmitFeedback(ctx context.Context, req FeedbackRequest, token string) error {
	return c.do(ctx, http.MethodPost, "/feedback/submit", token, req, nil)
}

// FeedbackHistory lists previously submitted feedback.
func (c *Client) FeedbackHistory(ctx context.Context, token string) ([]FeedbackEntry, error) {
	var resp struct {
		Data []FeedbackEntry `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/feedback/history", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
