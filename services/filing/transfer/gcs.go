// Copyright (C) 2025 Alpine Tax Labs (eng@alpinetax.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient implements Gateway against Google Cloud Storage.
type GCSClient struct {
	storageClient *storage.Client
	BucketName    string
}

// NewGCSClient creates a gateway using a service-account key file.
func NewGCSClient(ctx context.Context, bucketName, saKeyPath string) (*GCSClient, error) {
	if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
	}

	storageClient, err := storage.NewClient(ctx, option.WithCredentialsFile(saKeyPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSClient{storageClient: storageClient, BucketName: bucketName}, nil
}

// NewGCSClientWithDefaults creates a gateway using ambient credentials
// (metadata server or GOOGLE_APPLICATION_CREDENTIALS).
func NewGCSClientWithDefaults(ctx context.Context, bucketName string) (*GCSClient, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSClient{storageClient: storageClient, BucketName: bucketName}, nil
}

// objectPath lays out documents as users/{user}/{category}/{doc}/{filename}
// so per-user cleanup and category listing stay cheap on the bucket side.
func objectPath(req UploadRequest) string {
	return path.Join("users", req.UserID, req.Category, req.DocumentID, req.Filename)
}

// Upload streams the request body into the bucket.
func (c *GCSClient) Upload(ctx context.Context, req UploadRequest, progress ProgressFunc) (Result, error) {
	gcsPath := objectPath(req)

	obj := c.storageClient.Bucket(c.BucketName).Object(gcsPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = req.ContentType
	if writer.ContentType == "" {
		writer.ContentType = "application/octet-stream"
	}
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	body := io.Reader(req.Body)
	if progress != nil {
		body = newProgressReader(req.Body, req.Size, progress)
	}

	if _, err := io.Copy(writer, body); err != nil {
		_ = writer.Close()
		return Result{}, fmt.Errorf("failed to copy %s to GCS object %s: %w", req.Filename, gcsPath, err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close GCS writer for %s: %w", gcsPath, err)
	}
	if progress != nil {
		progress(100)
	}

	return Result{
		RemotePath: gcsPath,
		PublicURL:  fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.BucketName, gcsPath),
	}, nil
}

// Delete removes an object from the bucket.
func (c *GCSClient) Delete(ctx context.Context, remotePath string) error {
	if err := c.storageClient.Bucket(c.BucketName).Object(remotePath).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %s: %w", remotePath, err)
	}
	return nil
}

// Close releases the underlying client.
func (c *GCSClient) Close() error {
	return c.storageClient.Close()
}
