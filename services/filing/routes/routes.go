// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes registers the filing HTTP surface on a Gin router.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/alpinetax/filingkit/services/filing/handlers"
)

// Register wires all endpoints onto the router.
//
// Wizard:
//
//	GET    /v1/wizard                          - Full wizard state
//	POST   /v1/wizard/load                     - Load persisted state
//	POST   /v1/wizard/step                     - Jump to a step
//	POST   /v1/wizard/step/next                - Advance one step
//	POST   /v1/wizard/step/previous            - Go back one step
//	PATCH  /v1/wizard/form                     - Update one form field
//	POST   /v1/wizard/dependents/count         - Set declared dependent count
//	PATCH  /v1/wizard/dependents/:id           - Edit a dependent
//	DELETE /v1/wizard/dependents/:id           - Remove a dependent
//	POST   /v1/wizard/flush                    - Force pending autosave
//	POST   /v1/wizard/reset                    - Clear persisted state
//
// Documents:
//
//	POST   /v1/documents/:category             - Upload into a category
//	DELETE /v1/documents/:category/:id         - Delete a document
//	GET    /v1/documents/activity              - Active upload count
//	POST   /v1/income-sources/:id/documents    - Upload for an income source
//	DELETE /v1/income-sources/:id/documents/:docId
//
// Submission:
//
//	GET    /v1/submission/validate             - Readiness check
//	POST   /v1/submission                      - Submit the return
//
// Notifications, polling, events:
//
//	GET    /v1/notifications                   - List + unread count
//	POST   /v1/notifications/read-all          - Mark all read
//	POST   /v1/notifications/:id/read          - Mark one read
//	DELETE /v1/notifications/:id               - Remove one
//	POST   /v1/notifications/trigger           - Fire a named trigger
//	POST   /v1/notifications/send              - Ad hoc platform notification
//	POST   /v1/notifications/schedule          - Schedule a future notification
//	POST   /v1/polling/start                   - Start admin polling
//	POST   /v1/polling/stop                    - Stop admin polling
//	POST   /v1/polling/check                   - One immediate diff cycle
//	GET    /v1/polling/status                  - Poller snapshot
//	GET    /v1/events                          - Event replay buffer
//
// Backend pass-throughs: /v1/forms, /v1/support, /v1/appointments,
// /v1/feedback.
func Register(router *gin.Engine, h *handlers.Handlers) {
	router.GET("/health", h.HandleHealth)

	v1 := router.Group("/v1")
	{
		wizard := v1.Group("/wizard")
		{
			wizard.GET("", h.HandleWizardState)
			wizard.POST("/load", h.HandleWizardLoad)
			wizard.POST("/step", h.HandleGoToStep)
			wizard.POST("/step/next", h.HandleNextStep)
			wizard.POST("/step/previous", h.HandlePreviousStep)
			wizard.PATCH("/form", h.HandleUpdateField)
			wizard.POST("/dependents/count", h.HandleSetDependentCount)
			wizard.PATCH("/dependents/:id", h.HandleUpdateDependent)
			wizard.DELETE("/dependents/:id", h.HandleRemoveDependent)
			wizard.POST("/flush", h.HandleFlush)
			wizard.POST("/reset", h.HandleReset)
		}

		documents := v1.Group("/documents")
		{
			documents.GET("/activity", h.HandleUploadActivity)
			documents.POST("/:category", h.HandleUploadDocument)
			documents.DELETE("/:category/:id", h.HandleDeleteDocument)
		}

		incomeSources := v1.Group("/income-sources")
		{
			incomeSources.POST("/:id/documents", h.HandleUploadIncomeSourceDocument)
			incomeSources.DELETE("/:id/documents/:docId", h.HandleDeleteIncomeSourceDocument)
		}

		submission := v1.Group("/submission")
		{
			submission.GET("/validate", h.HandleValidateSubmission)
			submission.POST("", h.HandleSubmit)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", h.HandleListNotifications)
			notifications.POST("/read-all", h.HandleMarkAllNotificationsRead)
			notifications.POST("/trigger", h.HandleFireTrigger)
			notifications.POST("/send", h.HandleSendNotification)
			notifications.POST("/schedule", h.HandleScheduleNotification)
			notifications.POST("/:id/read", h.HandleMarkNotificationRead)
			notifications.DELETE("/:id", h.HandleRemoveNotification)
		}

		polling := v1.Group("/polling")
		{
			polling.POST("/start", h.HandleStartPolling)
			polling.POST("/stop", h.HandleStopPolling)
			polling.POST("/check", h.HandleForceCheck)
			polling.GET("/status", h.HandlePollingStatus)
		}

		v1.GET("/events", h.HandleEvents)

		forms := v1.Group("/forms")
		{
			forms.GET("", h.HandleFormHistory)
			forms.GET("/:id", h.HandleFormDetail)
		}

		support := v1.Group("/support")
		{
			support.POST("", h.HandleSubmitSupport)
			support.GET("", h.HandleSupportHistory)
		}

		appointments := v1.Group("/appointments")
		{
			appointments.POST("", h.HandleSubmitAppointment)
			appointments.GET("", h.HandleAppointmentHistory)
			appointments.GET("/slots", h.HandleAvailableSlots)
			appointments.POST("/:id/cancel", h.HandleCancelAppointment)
		}

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", h.HandleSubmitFeedback)
			feedback.GET("", h.HandleFeedbackHistory)
		}
	}
}
