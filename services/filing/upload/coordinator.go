// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package upload manages the async lifecycle of document transfers and
// fans the results into the wizard form state.
package upload

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alpinetax/filingkit/services/filing"
	"github.com/alpinetax/filingkit/services/filing/events"
	"github.com/alpinetax/filingkit/services/filing/transfer"
	"github.com/alpinetax/filingkit/services/filing/wizard"
)

// File is the user-picked file handed over by the shell. The coordinator
// takes ownership of Body: when it implements io.Closer it is closed once
// the transfer settles, or immediately when the upload is rejected or
// dropped. Callers must not close it themselves.
type File struct {
	Name      string
	MimeType  string
	SizeBytes int64
	// LocalURI is the device-local reference; kept as the preview source
	// so the UI can show the picked image without a round trip.
	LocalURI string
	Body     io.Reader
}

// closeBody releases the shell's file handle. Multipart bodies over the
// memory cap are backed by temp files whose descriptors would otherwise
// outlive the request.
func closeBody(file File) {
	if closer, ok := file.Body.(io.Closer); ok {
		_ = closer.Close()
	}
}

// transferTimeout bounds a single background transfer.
const transferTimeout = 10 * time.Minute

// Coordinator runs document transfers against the gateway and merges every
// state transition back into the wizard session. One coordinator serves
// all categories; uploads proceed independently and may complete in any
// order.
type Coordinator struct {
	log     *slog.Logger
	gateway transfer.Gateway
	session *wizard.Session
	emitter *events.Emitter
	metrics *filing.Metrics

	// active counts in-flight transfers. Each upload increments on start
	// and decrements on settle, so Active stays true until the last one
	// finishes (no shared-flag race between concurrent uploads).
	active atomic.Int64

	// wg tracks transfer goroutines for Wait in tests and shutdown.
	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

func WithMetrics(m *filing.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator bound to one wizard session.
func NewCoordinator(gateway transfer.Gateway, session *wizard.Session, emitter *events.Emitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:     slog.Default(),
		gateway: gateway,
		session: session,
		emitter: emitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active reports whether any upload is in flight.
func (c *Coordinator) Active() bool {
	return c.active.Load() > 0
}

// ActiveCount returns the number of in-flight uploads.
func (c *Coordinator) ActiveCount() int {
	return int(c.active.Load())
}

// Wait blocks until all in-flight transfers settle.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// UploadDocument starts a transfer into a fixed category. The document is
// appended synchronously in the uploading state and returned immediately;
// the transfer settles in the background. A category outside the fixed
// vocabulary is dropped silently (nothing appended, nothing transferred),
// matching the wizard's tolerance for stale shell code.
func (c *Coordinator) UploadDocument(file File, category filing.Category) (filing.UploadedDocument, error) {
	userID := c.session.UserID()
	if userID == "" {
		closeBody(file)
		return filing.UploadedDocument{}, filing.ErrNoUser
	}

	doc := newDocument(file, category)
	if !c.session.AppendDocument(category, doc) {
		c.log.Warn("dropping upload for unknown category", "category", category, "name", file.Name)
		closeBody(file)
		return doc, nil
	}

	c.start(userID, file, doc,
		func(patch func(*filing.UploadedDocument)) bool {
			return c.session.PatchDocument(category, doc.ID, patch)
		})
	return doc, nil
}

// UploadIncomeSourceDocument starts a transfer into an income source's
// nested document list. A vanished source id is a silent no-op.
func (c *Coordinator) UploadIncomeSourceDocument(file File, incomeSourceID string) (filing.UploadedDocument, error) {
	userID := c.session.UserID()
	if userID == "" {
		closeBody(file)
		return filing.UploadedDocument{}, filing.ErrNoUser
	}

	doc := newDocument(file, filing.Category("income_source_"+incomeSourceID))
	if !c.session.AppendIncomeSourceDocument(incomeSourceID, doc) {
		c.log.Warn("dropping upload for missing income source", "income_source", incomeSourceID, "name", file.Name)
		closeBody(file)
		return doc, nil
	}

	c.start(userID, file, doc,
		func(patch func(*filing.UploadedDocument)) bool {
			return c.session.PatchIncomeSourceDocument(incomeSourceID, doc.ID, patch)
		})
	return doc, nil
}

func newDocument(file File, category filing.Category) filing.UploadedDocument {
	return filing.UploadedDocument{
		ID:        uuid.NewString(),
		Name:      file.Name,
		MimeType:  file.MimeType,
		SizeBytes: file.SizeBytes,
		Status:    filing.DocumentUploading,
		Category:  category,
		LocalURI:  file.LocalURI,
		IsImage:   filing.IsImageFile(file.MimeType, file.Name),
		CreatedAt: time.Now(),
	}
}

// start launches the background transfer. patchDoc is the write path back
// into whichever slice owns the document; it returns false when the slot
// disappeared, in which case results are discarded.
func (c *Coordinator) start(userID string, file File, doc filing.UploadedDocument, patchDoc func(func(*filing.UploadedDocument)) bool) {
	c.active.Add(1)
	c.metrics.UploadStarted()
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		defer closeBody(file)

		// The transfer outlives the request that started it; a user
		// navigating away or deleting the row must not abort it.
		ctx, cancel := context.WithTimeout(context.Background(), transferTimeout)
		defer cancel()

		req := transfer.UploadRequest{
			UserID:      userID,
			Category:    string(doc.Category),
			DocumentID:  doc.ID,
			Filename:    file.Name,
			ContentType: file.MimeType,
			Size:        file.SizeBytes,
			Body:        file.Body,
		}

		result, err := c.gateway.Upload(ctx, req, func(pct int) {
			patchDoc(func(d *filing.UploadedDocument) {
				d.ProgressPercent = pct
			})
		})

		c.active.Add(-1)
		c.metrics.UploadSettled(err)

		if err != nil {
			c.log.Error("document upload failed", "name", file.Name, "document_id", doc.ID, "error", err)
			patchDoc(func(d *filing.UploadedDocument) {
				d.Status = filing.DocumentError
				d.ProgressPercent = 0
			})
			c.emitter.Emit(events.TypeDocumentFailed, events.DocumentData{
				DocumentID: doc.ID,
				Name:       doc.Name,
				Category:   string(doc.Category),
				Error:      err.Error(),
			})
			return
		}

		patchDoc(func(d *filing.UploadedDocument) {
			d.Status = filing.DocumentCompleted
			d.ProgressPercent = 100
			d.RemotePath = result.RemotePath
			d.PublicURL = result.PublicURL
			// Prefer the local URI for previews; the remote URL is the
			// fallback for restored sessions without the local file.
			if d.LocalURI != "" {
				d.PreviewURI = d.LocalURI
			} else {
				d.PreviewURI = result.PublicURL
			}
		})
		c.log.Info("document uploaded", "name", file.Name, "document_id", doc.ID, "remote_path", result.RemotePath)
		c.emitter.Emit(events.TypeDocumentUploaded, events.DocumentData{
			DocumentID: doc.ID,
			Name:       doc.Name,
			Category:   string(doc.Category),
		})
	}()
}

// DeleteDocument removes a document from a fixed category. When the
// document has a remote object the gateway delete runs first, best-effort:
// a failure is logged and swallowed, local removal proceeds regardless.
// Deletion does not abort an in-flight transfer for the same document.
func (c *Coordinator) DeleteDocument(ctx context.Context, id string, category filing.Category) error {
	doc, ok := c.session.Document(category, id)
	if !ok {
		return filing.ErrDocumentNotFound
	}
	c.deleteRemote(ctx, doc)
	c.session.RemoveDocument(category, id)
	return nil
}

// DeleteIncomeSourceDocument removes a nested document, same semantics as
// DeleteDocument.
func (c *Coordinator) DeleteIncomeSourceDocument(ctx context.Context, documentID, incomeSourceID string) error {
	doc, ok := c.session.IncomeSourceDocument(incomeSourceID, documentID)
	if !ok {
		return filing.ErrDocumentNotFound
	}
	c.deleteRemote(ctx, doc)
	c.session.RemoveIncomeSourceDocument(incomeSourceID, documentID)
	return nil
}

func (c *Coordinator) deleteRemote(ctx context.Context, doc filing.UploadedDocument) {
	if doc.RemotePath == "" {
		return
	}
	if err := c.gateway.Delete(ctx, doc.RemotePath); err != nil {
		c.log.Warn("remote delete failed, removing locally anyway",
			"document_id", doc.ID, "remote_path", doc.RemotePath, "error", err)
	}
}
