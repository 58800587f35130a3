// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpinetax/filingkit/services/filing"
)

// Trigger names. The vocabulary is fixed; callers fire them by name so
// screens never build notification copy themselves.
const (
	TriggerDocumentUploaded           = "documentUploaded"
	TriggerTaxDeadlineReminder        = "taxDeadlineReminder"
	TriggerRefundProcessed            = "refundProcessed"
	TriggerDocumentRejected           = "documentRejected"
	TriggerAppointmentScheduled       = "appointmentScheduled"
	TriggerWelcomeMessage             = "welcomeMessage"
	TriggerFormSubmitted              = "formSubmitted"
	TriggerReviewComplete             = "reviewComplete"
	TriggerScheduleWeeklyReminder     = "scheduleWeeklyReminder"
	TriggerScheduleDeadlineReminder   = "scheduleDeadlineReminder"
	TriggerAdminStatusChanged         = "adminStatusChanged"
	TriggerAdminDraftDocumentUploaded = "adminDraftDocumentUploaded"
	TriggerAdminFinalDocumentUploaded = "adminFinalDocumentUploaded"
)

// builder turns positional arguments into a notification payload. Missing
// arguments come through as "" rather than panicking.
type builder func(args []string) Notification

// Triggers maps trigger names to canned notification builders and fans
// the result out to the store and the platform notifier.
//
// Thread Safety: the registry is populated at construction and read-only
// afterwards, so Fire is safe for concurrent use.
type Triggers struct {
	log      *slog.Logger
	store    *Store
	notifier Notifier
	metrics  *filing.Metrics
	builders map[string]builder
}

// NewTriggers builds the registry over a store and a platform notifier.
// A nil notifier falls back to NopNotifier.
func NewTriggers(store *Store, notifier Notifier, log *slog.Logger) *Triggers {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	t := &Triggers{log: log, store: store, notifier: notifier}
	t.builders = map[string]builder{
		TriggerDocumentUploaded: func(args []string) Notification {
			return Notification{
				Type:  TriggerDocumentUploaded,
				Title: "Document uploaded",
				Body:  fmt.Sprintf("%s was uploaded successfully.", orDefault(arg(args, 0), "Your document")),
				Data:  map[string]any{"documentName": arg(args, 0)},
			}
		},
		TriggerTaxDeadlineReminder: func(args []string) Notification {
			return Notification{
				Type:  TriggerTaxDeadlineReminder,
				Title: "Tax deadline approaching",
				Body:  fmt.Sprintf("Only %s days left to file your return.", orDefault(arg(args, 0), "a few")),
			}
		},
		TriggerRefundProcessed: func(args []string) Notification {
			return Notification{
				Type:  TriggerRefundProcessed,
				Title: "Refund processed",
				Body:  fmt.Sprintf("Your refund of %s has been processed.", orDefault(arg(args, 0), "your return")),
				Data:  map[string]any{"amount": arg(args, 0)},
			}
		},
		TriggerDocumentRejected: func(args []string) Notification {
			return Notification{
				Type:  TriggerDocumentRejected,
				Title: "Document needs attention",
				Body:  fmt.Sprintf("%s was rejected. Please upload a new copy.", orDefault(arg(args, 0), "A document")),
				Data:  map[string]any{"documentName": arg(args, 0)},
			}
		},
		TriggerAppointmentScheduled: func(args []string) Notification {
			return Notification{
				Type:  TriggerAppointmentScheduled,
				Title: "Appointment scheduled",
				Body:  fmt.Sprintf("Your appointment is confirmed for %s.", orDefault(arg(args, 0), "the requested time")),
				Data:  map[string]any{"when": arg(args, 0)},
			}
		},
		TriggerWelcomeMessage: func(args []string) Notification {
			return Notification{
				Type:  TriggerWelcomeMessage,
				Title: "Welcome",
				Body:  "Let's get your tax return started.",
			}
		},
		TriggerFormSubmitted: func(args []string) Notification {
			return Notification{
				Type:  TriggerFormSubmitted,
				Title: "Return submitted",
				Body:  "Your tax return was submitted and is awaiting review.",
				Data:  map[string]any{"taxFormId": arg(args, 0)},
			}
		},
		TriggerReviewComplete: func(args []string) Notification {
			return Notification{
				Type:  TriggerReviewComplete,
				Title: "Review complete",
				Body:  "Our team has finished reviewing your return.",
				Data:  map[string]any{"formId": arg(args, 0)},
			}
		},
		TriggerScheduleWeeklyReminder: func(args []string) Notification {
			return Notification{
				Type:  TriggerScheduleWeeklyReminder,
				Title: "Weekly check-in",
				Body:  "You have an unfinished tax return. Pick up where you left off.",
			}
		},
		TriggerScheduleDeadlineReminder: func(args []string) Notification {
			return Notification{
				Type:  TriggerScheduleDeadlineReminder,
				Title: "Filing deadline reminder",
				Body:  fmt.Sprintf("The filing deadline is %s.", orDefault(arg(args, 0), "coming up")),
			}
		},
		TriggerAdminStatusChanged: func(args []string) Notification {
			return Notification{
				Type:  TriggerAdminStatusChanged,
				Title: "Your return status changed",
				Body:  fmt.Sprintf("Status changed from %s to %s.", orDefault(arg(args, 0), "unknown"), orDefault(arg(args, 1), "unknown")),
				Data: map[string]any{
					"oldStatus": arg(args, 0),
					"newStatus": arg(args, 1),
					"formId":    arg(args, 2),
				},
			}
		},
		TriggerAdminDraftDocumentUploaded: func(args []string) Notification {
			return Notification{
				Type:  TriggerAdminDraftDocumentUploaded,
				Title: "Draft return ready",
				Body:  fmt.Sprintf("%s is ready for your review.", orDefault(arg(args, 0), "A draft of your return")),
				Data:  map[string]any{"documentName": arg(args, 0), "formId": arg(args, 1)},
			}
		},
		TriggerAdminFinalDocumentUploaded: func(args []string) Notification {
			return Notification{
				Type:  TriggerAdminFinalDocumentUploaded,
				Title: "Final return ready",
				Body:  fmt.Sprintf("%s is available for download.", orDefault(arg(args, 0), "Your final return")),
				Data:  map[string]any{"documentName": arg(args, 0), "formId": arg(args, 1)},
			}
		},
	}
	return t
}

// WithMetrics attaches a metrics sink for method chaining.
func (t *Triggers) WithMetrics(m *filing.Metrics) *Triggers {
	t.metrics = m
	return t
}

// Fire invokes a trigger by name. Unknown names log a warning and do
// nothing. The entry is always added to the store; the platform send is
// best effort and its failure only logs.
func (t *Triggers) Fire(name string, args ...string) {
	b, ok := t.builders[name]
	if !ok {
		t.log.Warn("unknown notification trigger", "trigger", name)
		return
	}

	n := t.store.Add(b(args))
	t.metrics.NotificationRaised()
	if err := t.notifier.Send(context.Background(), n); err != nil {
		t.log.Warn("platform notification send failed", "trigger", name, "error", err)
	}
	t.log.Debug("notification fired", "trigger", name, "id", n.ID)
}

// Send delivers an ad hoc notification through the platform notifier and,
// on success, records it in the store so the in-app list and the OS tray
// stay consistent.
func (t *Triggers) Send(ctx context.Context, n Notification) (Notification, error) {
	if err := t.notifier.Send(ctx, n); err != nil {
		return Notification{}, err
	}
	stored := t.store.Add(n)
	t.metrics.NotificationRaised()
	return stored, nil
}

// Schedule hands a notification to the platform for future delivery. The
// store is not touched; the entry appears in-app only when the platform
// actually delivers it.
func (t *Triggers) Schedule(ctx context.Context, n Notification, at time.Time) error {
	return t.notifier.Schedule(ctx, n, at)
}

// Names returns the registered trigger names.
func (t *Triggers) Names() []string {
	out := make([]string, 0, len(t.builders))
	for name := range t.builders {
		out = append(out, name)
	}
	return out
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
