// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides the blob store used for book covers and chapter PDFs.

It wraps a MinIO/S3-compatible client behind a small interface so that domain
services see only (bytes, key, content-type) semantics.

Core Responsibilities:

  - Durability: Uploaded objects survive process restarts.
  - Opacity: Callers hold keys, never bucket or endpoint details.
  - Delivery: Read access is granted through short-lived presigned URLs.
*/
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const bucketProbeTimeout = 5 * time.Second

// ObjectStore is the contract domain services use to persist and serve blobs.
type ObjectStore interface {

	/*
		Put uploads an object under the given key.

		Parameters:
		  - context: context.Context
		  - key: string (Durable object key)
		  - reader: io.Reader (Object bytes)
		  - size: int64 (Exact byte length)
		  - contentType: string (MIME type)

		Returns:
		  - error: Upload failure
	*/
	Put(context context.Context, key string, reader io.Reader, size int64, contentType string) error

	/*
		PresignGet returns a time-limited GET URL for an object key.

		Parameters:
		  - context: context.Context
		  - key: string
		  - expiry: time.Duration

		Returns:
		  - string: Fully qualified URL
		  - error: Signing failure
	*/
	PresignGet(context context.Context, key string, expiry time.Duration) (string, error)

	/*
		Delete removes an object. Missing keys are not an error.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Removal failure
	*/
	Delete(context context.Context, key string) error
}

// # MinIO Implementation

// MinioStore implements [ObjectStore] against MinIO or any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the object store and ensures the bucket exists.
//
// # Parameters
//   - endpoint: Host:port of the S3-compatible endpoint.
//   - accessKey, secretKey: Static credentials.
//   - bucket: Bucket holding all Chaptra media.
//   - useSSL: TLS toggle (off for local MinIO).
//   - logger: Structured logger for connection events.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *slog.Logger) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize minio client: %w", err)
	}

	// Probe and create the bucket at startup so the first upload never races
	// bucket creation.
	probeCtx, cancel := context.WithTimeout(context.Background(), bucketProbeTimeout)
	defer cancel()

	exists, err := client.BucketExists(probeCtx, bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to check bucket %q: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(probeCtx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: failed to create bucket %q: %w", bucket, err)
		}
	}

	logger.Info("object store connected",
		slog.String("endpoint", endpoint),
		slog.String("bucket", bucket),
	)

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put uploads an object.
func (store *MinioStore) Put(context context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := store.client.PutObject(context, store.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: failed to put object %q: %w", key, err)
	}
	return nil
}

// PresignGet generates a pre-signed GET URL for the object.
func (store *MinioStore) PresignGet(context context.Context, key string, expiry time.Duration) (string, error) {
	url, err := store.client.PresignedGetObject(context, store.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: failed to presign object %q: %w", key, err)
	}
	return url.String(), nil
}

// Delete removes an object from the bucket.
func (store *MinioStore) Delete(context context.Context, key string) error {
	if err := store.client.RemoveObject(context, store.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: failed to delete object %q: %w", key, err)
	}
	return nil
}
