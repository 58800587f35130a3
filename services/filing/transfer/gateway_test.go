// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package transfer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReaderReportsNonDecreasing(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	var reported []int
	r := newProgressReader(bytes.NewReader(data), int64(len(data)), func(pct int) {
		reported = append(reported, pct)
	})

	buf := make([]byte, 64)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
	for i := 1; i < len(reported); i++ {
		assert.Greater(t, reported[i], reported[i-1], "progress must be strictly increasing per report")
	}
}

func TestProgressReaderUnknownSizeStaysQuiet(t *testing.T) {
	var called bool
	r := newProgressReader(bytes.NewReader([]byte("abc")), 0, func(int) { called = true })

	_, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.False(t, called, "unknown total size reports nothing until completion")
}

func TestProgressReaderCapsAtHundred(t *testing.T) {
	// Declared size smaller than actual bytes: percentage is clamped.
	data := bytes.Repeat([]byte("y"), 200)
	var last int
	r := newProgressReader(bytes.NewReader(data), 100, func(pct int) { last = pct })

	_, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, 100, last)
}

func TestObjectPathLayout(t *testing.T) {
	got := objectPath(UploadRequest{
		UserID:     "u1",
		Category:   "w2Forms",
		DocumentID: "d1",
		Filename:   "w2.pdf",
	})
	assert.Equal(t, "users/u1/w2Forms/d1/w2.pdf", got)
}
