// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package notify

import (
	"log/slog"

	"github.com/alpinetax/filingkit/services/filing/backend"
	"github.com/alpinetax/filingkit/services/filing/events"
)

// Service subscribes trigger firing to the event bus, so the poller and
// the upload coordinator never know notifications exist. Construct it
// once at composition time and Close it on shutdown.
type Service struct {
	log      *slog.Logger
	triggers *Triggers
	emitter  *events.Emitter
	subIDs   []string
}

// NewService wires the bus to the trigger registry.
func NewService(emitter *events.Emitter, triggers *Triggers, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{log: log, triggers: triggers, emitter: emitter}

	s.subIDs = append(s.subIDs,
		emitter.Subscribe(s.onAdminStatusChanged, events.TypeAdminStatusChanged),
		emitter.Subscribe(s.onAdminDocumentUploaded, events.TypeAdminDocumentUploaded),
		emitter.Subscribe(s.onDocumentUploaded, events.TypeDocumentUploaded),
		emitter.Subscribe(s.onDocumentFailed, events.TypeDocumentFailed),
		emitter.Subscribe(s.onFormSubmitted, events.TypeFormSubmitted),
	)
	return s
}

// Close detaches all subscriptions.
func (s *Service) Close() {
	for _, id := range s.subIDs {
		s.emitter.Unsubscribe(id)
	}
	s.subIDs = nil
}

func (s *Service) onAdminStatusChanged(ev events.Event) {
	data, ok := ev.Data.(events.AdminStatusData)
	if !ok {
		s.log.Warn("unexpected event payload", "type", ev.Type)
		return
	}
	s.triggers.Fire(TriggerAdminStatusChanged, data.OldStatus, data.NewStatus, data.FormID)
}

func (s *Service) onAdminDocumentUploaded(ev events.Event) {
	data, ok := ev.Data.(events.AdminDocumentData)
	if !ok {
		s.log.Warn("unexpected event payload", "type", ev.Type)
		return
	}
	switch data.Category {
	case backend.AdminCategoryDraftReturn:
		s.triggers.Fire(TriggerAdminDraftDocumentUploaded, data.Name, data.FormID)
	case backend.AdminCategoryFinalReturn:
		s.triggers.Fire(TriggerAdminFinalDocumentUploaded, data.Name, data.FormID)
	}
}

func (s *Service) onDocumentUploaded(ev events.Event) {
	data, ok := ev.Data.(events.DocumentData)
	if !ok {
		s.log.Warn("unexpected event payload", "type", ev.Type)
		return
	}
	s.triggers.Fire(TriggerDocumentUploaded, data.Name)
}

func (s *Service) onDocumentFailed(ev events.Event) {
	data, ok := ev.Data.(events.DocumentData)
	if !ok {
		s.log.Warn("unexpected event payload", "type", ev.Type)
		return
	}
	s.triggers.Fire(TriggerDocumentRejected, data.Name)
}

func (s *Service) onFormSubmitted(ev events.Event) {
	data, ok := ev.Data.(events.SubmissionData)
	if !ok {
		s.log.Warn("unexpected event payload", "type", ev.Type)
		return
	}
	s.triggers.Fire(TriggerFormSubmitted, data.TaxFormID)
}
