package receipts

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures the receipt object store.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

// MinioStore stores receipts in an S3-compatible bucket.
type MinioStore struct {
	raw    *minio.Client
	bucket string
	prefix string
}

// NewMinioStore constructs a store.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("receipts: create minio client: %w", err)
	}
	return &MinioStore{raw: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put uploads a receipt and returns its object key.
func (s *MinioStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if s == nil || s.raw == nil {
		return "", fmt.Errorf("receipts: nil minio client")
	}
	key := s.prefix + name
	reader := bytes.NewReader(data)
	_, err := s.raw.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("receipts: put object %q: %w", key, err)
	}
	return key, nil
}

// Link returns a presigned download URL for a stored receipt.
func (s *MinioStore) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s == nil || s.raw == nil {
		return "", fmt.Errorf("receipts: nil minio client")
	}
	u, err := s.raw.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("receipts: presign %q: %w", key, err)
	}
	return u.String(), nil
}
