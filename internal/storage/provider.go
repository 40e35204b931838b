// Package storage archives generated report artifacts in an S3-compatible
// bucket. Archiving is optional; a nil Provider disables it.
package storage

import (
	"context"
	"time"
)

// Provider is the report archive interface.
type Provider interface {
	// EnsureBucket checks the archive bucket exists, creating it if needed.
	EnsureBucket(ctx context.Context) error

	// Put stores one artifact under the given object key.
	Put(ctx context.Context, objectKey string, data []byte, contentType string) error

	// PresignedURL returns a temporary download link for an archived
	// artifact.
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
