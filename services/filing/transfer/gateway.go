// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package transfer moves document bytes to and from remote object storage.
package transfer

import (
	"context"
	"io"
)

// UploadRequest describes one file transfer.
type UploadRequest struct {
	UserID      string
	Category    string
	DocumentID  string
	Filename    string
	ContentType string
	// Size is the total byte count, used for progress percentages.
	// Zero means unknown; progress then jumps straight to 100 on finish.
	Size int64
	Body io.Reader
}

// Result is the remote location of a completed upload.
type Result struct {
	// RemotePath is the object path inside the bucket, used for deletes.
	RemotePath string
	// PublicURL is the externally resolvable URL for previews.
	PublicURL string
}

// ProgressFunc receives upload progress as a percentage in [0, 100].
// Values are non-decreasing for a single upload.
type ProgressFunc func(percent int)

// Gateway is the object-storage port the upload coordinator talks to.
type Gateway interface {
	// Upload streams the request body to remote storage, reporting
	// progress if a callback is given.
	Upload(ctx context.Context, req UploadRequest, progress ProgressFunc) (Result, error)

	// Delete removes a previously uploaded object. Used best-effort by
	// document deletion.
	Delete(ctx context.Context, remotePath string) error
}

// progressReader counts bytes flowing through an io.Copy and reports
// percentages. It assumes the underlying reader delivers bytes in order,
// which keeps per-document progress non-decreasing.
type progressReader struct {
	inner    io.Reader
	total    int64
	read     int64
	lastPct  int
	progress ProgressFunc
}

func newProgressReader(inner io.Reader, total int64, progress ProgressFunc) *progressReader {
	return &progressReader{inner: inner, total: total, progress: progress}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 && r.progress != nil && r.total > 0 {
		r.read += int64(n)
		pct := int(r.read * 100 / r.total)
		if pct > 100 {
			pct = 100
		}
		if pct > r.lastPct {
			r.lastPct = pct
			r.progress(pct)
		}
	}
	return n, err
}
