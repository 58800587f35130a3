// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package filing

import "errors"

var (
	// ErrNoUser means no authenticated user id is available. Uploads and
	// submission reject on it; loading and autosave silently skip instead.
	ErrNoUser = errors.New("no authenticated user")

	// ErrDocumentNotFound means no document with the given id exists in
	// the targeted slice.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDependentNotFound means no dependent with the given id exists.
	ErrDependentNotFound = errors.New("dependent not found")
)
