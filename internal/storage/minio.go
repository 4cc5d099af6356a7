package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/your-org/liftlog/internal/config"
)

// MinIOStore issues presigned upload URLs. The service never handles the
// video or thumbnail bytes itself.
type MinIOStore struct {
	client          *minio.Client
	videoBucket     string
	thumbnailBucket string
	urlTTL          time.Duration
}

func NewMinIOStore(cfg config.MinIOConfig, urlTTL time.Duration) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{
		client:          client,
		videoBucket:     cfg.VideoBucket,
		thumbnailBucket: cfg.ThumbnailBucket,
		urlTTL:          urlTTL,
	}, nil
}

// EnsureBuckets creates the video and thumbnail buckets if they don't exist.
func (s *MinIOStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.videoBucket, s.thumbnailBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PresignVideoUpload returns a PUT URL for a raw video object.
func (s *MinIOStore) PresignVideoUpload(ctx context.Context, objectName string) (string, error) {
	return s.presignPut(ctx, s.videoBucket, objectName)
}

// PresignThumbnailUpload returns a PUT URL for a thumbnail object.
func (s *MinIOStore) PresignThumbnailUpload(ctx context.Context, objectName string) (string, error) {
	return s.presignPut(ctx, s.thumbnailBucket, objectName)
}

func (s *MinIOStore) presignPut(ctx context.Context, bucket, objectName string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, bucket, objectName, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("presign put %s/%s: %w", bucket, objectName, err)
	}
	return u.String(), nil
}

// Ping checks MinIO connectivity.
func (s *MinIOStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.videoBucket)
	return err
}
