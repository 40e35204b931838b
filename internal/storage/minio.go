package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fleetpulse-io/fleetpulse/pkg/log"
	"github.com/fleetpulse-io/fleetpulse/pkg/options"
)

type minioProvider struct {
	client *minio.Client
	bucket string
	lg     log.Logger
}

var _ Provider = (*minioProvider)(nil)

// NewMinIOProvider creates an S3-backed archive from the given options.
func NewMinIOProvider(opts *options.S3Options) (Provider, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioProvider{
		client: client,
		bucket: opts.BucketName,
		lg:     log.WithName("storage"),
	}, nil
}

func (p *minioProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		p.lg.Info("archive bucket does not exist, creating", "bucket", p.bucket)
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

func (p *minioProvider) Put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, p.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", objectKey, err)
	}
	p.lg.Debug("artifact archived", "key", objectKey, "bytes", len(data))
	return nil
}

func (p *minioProvider) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := p.client.PresignedGetObject(ctx, p.bucket, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", objectKey, err)
	}
	return u.String(), nil
}
