// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the HTTP handlers the mobile shell calls.
// Handlers translate between JSON and the filing services; every rule
// about forms, uploads, and polling lives below this layer.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
	"github.com/alpinetax/filingkit/services/filing/notify"
	"github.com/alpinetax/filingkit/services/filing/poll"
	"github.com/alpinetax/filingkit/services/filing/submit"
	"github.com/alpinetax/filingkit/services/filing/upload"
	"github.com/alpinetax/filingkit/services/filing/wizard"
)

// ServiceVersion is reported by the health endpoint.
const ServiceVersion = "0.1.0"

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Handlers holds the wired services. Construct with NewHandlers.
type Handlers struct {
	session     *wizard.Session
	coordinator *upload.Coordinator
	submitter   *submit.Submitter
	poller      *poll.Poller
	store       *notify.Store
	triggers    *notify.Triggers
	client      *backend.Client
	tokens      filing.TokenSource
	emitter     *events.Emitter
	log         *slog.Logger
}

// Deps bundles the constructor arguments; all fields are required except
// Log.
type Deps struct {
	Session     *wizard.Session
	Coordinator *upload.Coordinator
	Submitter   *submit.Submitter
	Poller      *poll.Poller
	Store       *notify.Store
	Triggers    *notify.Triggers
	Client      *backend.Client
	Tokens      filing.TokenSource
	Emitter     *events.Emitter
	Log         *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(d Deps) *Handlers {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		session:     d.Session,
		coordinator: d.Coordinator,
		submitter:   d.Submitter,
		poller:      d.Poller,
		store:       d.Store,
		triggers:    d.Triggers,
		client:      d.Client,
		tokens:      d.Tokens,
		emitter:     d.Emitter,
		log:         log,
	}
}

func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// token resolves the backend bearer token; a failure writes a 401 and
// returns false.
func (h *Handlers) token(c *gin.Context) (string, bool) {
	token, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "no valid session token", Code: "UNAUTHENTICATED"})
		return "", false
	}
	return token, true
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": ServiceVersion,
	})
}

// ---- Wizard ----

// HandleWizardState handles GET /v1/wizard. Returns the full wizard view:
// load state, current step, form data, dependents.
func (h *Handlers) HandleWizardState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loadState":          h.session.State().String(),
		"currentStep":        h.session.Step(),
		"totalSteps":         wizard.TotalSteps,
		"formData":           h.session.FormData(),
		"dependents":         h.session.Dependents(),
		"numberOfDependents": h.session.NumberOfDependents(),
	})
}

// HandleWizardLoad handles POST /v1/wizard/load. Idempotent; repeat calls
// while Loaded are no-ops.
func (h *Handlers) HandleWizardLoad(c *gin.Context) {
	if err := h.session.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "LOAD_FAILED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loadState": h.session.State().String()})
}

// HandleNextStep handles POST /v1/wizard/step/next. exited=true means the
// user advanced past the last step.
func (h *Handlers) HandleNextStep(c *gin.Context) {
	exited := h.session.NextStep()
	c.JSON(http.StatusOK, gin.H{"currentStep": h.session.Step(), "exited": exited})
}

// HandlePreviousStep handles POST /v1/wizard/step/previous. exited=true
// means the user backed out of the first step.
func (h *Handlers) HandlePreviousStep(c *gin.Context) {
	exited := h.session.PreviousStep()
	c.JSON(http.StatusOK, gin.H{"currentStep": h.session.Step(), "exited": exited})
}

// HandleGoToStep handles POST /v1/wizard/step. Body: {"step": n}.
func (h *Handlers) HandleGoToStep(c *gin.Context) {
	var req struct {
		Step int `json:"step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	h.session.GoToStep(req.Step)
	c.JSON(http.StatusOK, gin.H{"currentStep": h.session.Step()})
}

// HandleUpdateField handles PATCH /v1/wizard/form. Body:
// {"field": "...", "value": ...}. Unknown fields are a 400.
func (h *Handlers) HandleUpdateField(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value any    `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if err := h.session.UpdateFormData(req.Field, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_FIELD"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"formData": h.session.FormData()})
}

// HandleSetDependentCount handles POST /v1/wizard/dependents/count.
// Body: {"count": "3"}. The count is the raw string, so blank and junk input behave
// the way the form field does (treated as zero).
func (h *Handlers) HandleSetDependentCount(c *gin.Context) {
	var req struct {
		Count string `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	h.session.SetNumberOfDependents(req.Count)
	c.JSON(http.StatusOK, gin.H{
		"numberOfDependents": h.session.NumberOfDependents(),
		"dependents":         h.session.Dependents(),
	})
}

// HandleUpdateDependent handles PATCH /v1/wizard/dependents/:id.
func (h *Handlers) HandleUpdateDependent(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if err := h.session.UpdateDependent(c.Param("id"), req.Field, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_FIELD"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dependents": h.session.Dependents()})
}

// HandleRemoveDependent handles DELETE /v1/wizard/dependents/:id. The
// declared count is left untouched on purpose.
func (h *Handlers) HandleRemoveDependent(c *gin.Context) {
	h.session.RemoveDependent(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"dependents":         h.session.Dependents(),
		"numberOfDependents": h.session.NumberOfDependents(),
	})
}

// HandleFlush handles POST /v1/wizard/flush. Forces any pending debounced
// save to disk now.
func (h *Handlers) HandleFlush(c *gin.Context) {
	h.session.Flush()
	c.Status(http.StatusNoContent)
}

// HandleReset handles POST /v1/wizard/reset. Clears persisted state and
// returns the wizard to defaults.
func (h *Handlers) HandleReset(c *gin.Context) {
	if err := h.session.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "RESET_FAILED"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- Documents ----

// HandleUploadDocument handles POST /v1/documents/:category (multipart
// field "file"). Responds as soon as the document is registered; the
// transfer continues in the background and progress lands in form data.
func (h *Handlers) HandleUploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing multipart field 'file'", Code: "INVALID_REQUEST"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "UPLOAD_FAILED"})
		return
	}

	file := upload.File{
		Name:      fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		SizeBytes: fileHeader.Size,
		Body:      f,
	}
	doc, err := h.coordinator.UploadDocument(file, filing.Category(c.Param("category")))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UPLOAD_REJECTED"})
		return
	}
	c.JSON(http.StatusAccepted, doc)
}

// HandleUploadIncomeSourceDocument handles
// POST /v1/income-sources/:id/documents.
func (h *Handlers) HandleUploadIncomeSourceDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing multipart field 'file'", Code: "INVALID_REQUEST"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "UPLOAD_FAILED"})
		return
	}

	file := upload.File{
		Name:      fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		SizeBytes: fileHeader.Size,
		Body:      f,
	}
	doc, err := h.coordinator.UploadIncomeSourceDocument(file, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UPLOAD_REJECTED"})
		return
	}
	c.JSON(http.StatusAccepted, doc)
}

// HandleDeleteDocument handles DELETE /v1/documents/:category/:id.
// Remote deletion is best effort; the local entry always goes.
func (h *Handlers) HandleDeleteDocument(c *gin.Context) {
	if err := h.coordinator.DeleteDocument(c.Request.Context(), c.Param("id"), filing.Category(c.Param("category"))); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleDeleteIncomeSourceDocument handles
// DELETE /v1/income-sources/:id/documents/:docId.
func (h *Handlers) HandleDeleteIncomeSourceDocument(c *gin.Context) {
	if err := h.coordinator.DeleteIncomeSourceDocument(c.Request.Context(), c.Param("docId"), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleUploadActivity handles GET /v1/documents/activity.
func (h *Handlers) HandleUploadActivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uploading":   h.coordinator.Active(),
		"activeCount": h.coordinator.ActiveCount(),
	})
}

// ---- Submission ----

// HandleValidateSubmission handles GET /v1/submission/validate. Always
// 200; readiness is in the body.
func (h *Handlers) HandleValidateSubmission(c *gin.Context) {
	c.JSON(http.StatusOK, submit.ValidateFormData(h.session.FormData()))
}

// HandleSubmit handles POST /v1/submission. Validation failures are a 422
// with the human-readable reasons; backend failures pass through as 502.
func (h *Handlers) HandleSubmit(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.log.With("request_id", requestID, "handler", "HandleSubmit")

	form := h.session.FormData()
	if result := submit.ValidateFormData(form); !result.IsValid {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	token, ok := h.token(c)
	if !ok {
		return
	}

	h.session.Flush()
	result, err := h.submitter.Submit(c.Request.Context(), form, h.session.Dependents(), token)
	if err != nil {
		logger.Warn("submission failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "SUBMIT_FAILED"})
		return
	}

	// A submitted return supersedes the draft.
	if err := h.session.Reset(c.Request.Context()); err != nil {
		logger.Warn("post-submit reset failed", "error", err)
	}
	c.JSON(http.StatusOK, result)
}

// ---- Notifications ----

// HandleListNotifications handles GET /v1/notifications.
func (h *Handlers) HandleListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.store.All(),
		"unreadCount":   h.store.UnreadCount(),
	})
}

// HandleMarkNotificationRead handles POST /v1/notifications/:id/read.
func (h *Handlers) HandleMarkNotificationRead(c *gin.Context) {
	h.store.MarkRead(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"unreadCount": h.store.UnreadCount()})
}

// HandleMarkAllNotificationsRead handles POST /v1/notifications/read-all.
func (h *Handlers) HandleMarkAllNotificationsRead(c *gin.Context) {
	h.store.MarkAllRead()
	c.JSON(http.StatusOK, gin.H{"unreadCount": h.store.UnreadCount()})
}

// HandleRemoveNotification handles DELETE /v1/notifications/:id.
func (h *Handlers) HandleRemoveNotification(c *gin.Context) {
	h.store.Remove(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// HandleFireTrigger handles POST /v1/notifications/trigger. Body:
// {"name": "...", "args": [...]}. Unknown names are accepted and ignored,
// matching the trigger registry contract.
func (h *Handlers) HandleFireTrigger(c *gin.Context) {
	var req struct {
		Name string   `json:"name" binding:"required"`
		Args []string `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	h.triggers.Fire(req.Name, req.Args...)
	c.Status(http.StatusAccepted)
}

// HandleSendNotification handles POST /v1/notifications/send. Delivers an
// ad hoc notification through the platform notifier; on success it also
// lands in the in-app list.
func (h *Handlers) HandleSendNotification(c *gin.Context) {
	var n notify.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	stored, err := h.triggers.Send(c.Request.Context(), n)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "NOTIFY_FAILED"})
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// HandleScheduleNotification handles POST /v1/notifications/schedule.
// Body: {"at": RFC3339, "notification": {...}}.
func (h *Handlers) HandleScheduleNotification(c *gin.Context) {
	var req struct {
		At           time.Time           `json:"at" binding:"required"`
		Notification notify.Notification `json:"notification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	if err := h.triggers.Schedule(c.Request.Context(), req.Notification, req.At); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "NOTIFY_FAILED"})
		return
	}
	c.Status(http.StatusAccepted)
}

// ---- Polling ----

// HandleStartPolling handles POST /v1/polling/start.
func (h *Handlers) HandleStartPolling(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	h.poller.Start(token)
	c.JSON(http.StatusOK, h.poller.GetStatus())
}

// HandleStopPolling handles POST /v1/polling/stop.
func (h *Handlers) HandleStopPolling(c *gin.Context) {
	h.poller.Stop()
	c.JSON(http.StatusOK, h.poller.GetStatus())
}

// HandleForceCheck handles POST /v1/polling/check.
func (h *Handlers) HandleForceCheck(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	h.poller.ForceCheck(token)
	c.JSON(http.StatusOK, h.poller.GetStatus())
}

// HandlePollingStatus handles GET /v1/polling/status.
func (h *Handlers) HandlePollingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.poller.GetStatus())
}

// ---- Events ----

// HandleEvents handles GET /v1/events?since=RFC3339. Returns the replay
// buffer so a reattaching shell can catch up on missed events.
func (h *Handlers) HandleEvents(c *gin.Context) {
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'since' timestamp", Code: "INVALID_REQUEST"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": h.emitter.BufferSince(since)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.emitter.Buffer()})
}

// ---- Backend pass-throughs ----

// HandleFormHistory handles GET /v1/forms.
func (h *Handlers) HandleFormHistory(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	forms, err := h.client.FormHistory(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

// HandleFormDetail handles GET /v1/forms/:id.
func (h *Handlers) HandleFormDetail(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	form, err := h.client.FormDetail(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, form)
}

// HandleSubmitSupport handles POST /v1/support.
func (h *Handlers) HandleSubmitSupport(c *gin.Context) {
	var req backend.SupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.client.SubmitSupportRequest(c.Request.Context(), req, token); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.Status(http.StatusCreated)
}

// HandleSupportHistory handles GET /v1/support.
func (h *Handlers) HandleSupportHistory(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	tickets, err := h.client.SupportHistory(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// HandleSubmitAppointment handles POST /v1/appointments.
func (h *Handlers) HandleSubmitAppointment(c *gin.Context) {
	var req backend.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.client.SubmitAppointment(c.Request.Context(), req, token); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	h.triggers.Fire(notify.TriggerAppointmentScheduled, req.Date+" "+req.Slot)
	c.Status(http.StatusCreated)
}

// HandleAppointmentHistory handles GET /v1/appointments.
func (h *Handlers) HandleAppointmentHistory(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	appts, err := h.client.AppointmentHistory(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// HandleAvailableSlots handles GET /v1/appointments/slots?date=YYYY-MM-DD.
func (h *Handlers) HandleAvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing 'date' query parameter", Code: "INVALID_REQUEST"})
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	slots, err := h.client.AvailableSlots(c.Request.Context(), date, token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// HandleCancelAppointment handles POST /v1/appointments/:id/cancel.
func (h *Handlers) HandleCancelAppointment(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.client.CancelAppointment(c.Request.Context(), c.Param("id"), token); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSubmitFeedback handles POST /v1/feedback.
func (h *Handlers) HandleSubmitFeedback(c *gin.Context) {
	var req backend.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "INVALID_REQUEST"})
		return
	}
	token, ok := h.token(c)
	if !ok {
		return
	}
	if err := h.client.SubmitFeedback(c.Request.Context(), req, token); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.Status(http.StatusCreated)
}

// HandleFeedbackHistory handles GET /v1/feedback.
func (h *Handlers) HandleFeedbackHistory(c *gin.Context) {
	token, ok := h.token(c)
	if !ok {
		return
	}
	entries, err := h.client.FeedbackHistory(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "BACKEND_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": entries})
}
