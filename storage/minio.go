package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"R2FM/config"
	"R2FM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PlayURLExpiry is the validity window for presigned playback and download
// references.
const PlayURLExpiry = time.Hour

// Store wraps the MinIO client for one bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore connects to the object storage endpoint and ensures the bucket
// exists.
func NewStore(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created object storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Store{client: client, bucket: cfg.MinioBucket}, nil
}

// PresignedGetURL issues a time-boxed direct-read reference for one object.
func (s *Store) PresignedGetURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, PlayURLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign GET for %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// PresignedPutURL issues a time-boxed direct-write reference for one object.
func (s *Store) PresignedPutURL(ctx context.Context, objectKey string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, PlayURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT for %s: %w", objectKey, err)
	}
	return u.String(), nil
}
