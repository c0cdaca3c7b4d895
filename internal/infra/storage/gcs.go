package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"marketplace-app/internal/platform/logger"
)

// VideoStore hands out short-lived URLs for lesson videos. The policy layer
// decides who gets one; this layer only signs.
type VideoStore interface {
	SignedVideoURL(ctx context.Context, objectKey string) (string, error)
}

type gcsVideoStore struct {
	client *gcs.Client
	bucket string
	ttl    time.Duration
	log    *logger.Logger
}

func NewGCSVideoStore(ctx context.Context, bucket string, ttl time.Duration, log *logger.Logger) (VideoStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket name")
	}

	var opts []option.ClientOption
	if sa := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); sa != "" {
		opts = append(opts, option.WithCredentialsFile(sa))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &gcsVideoStore{
		client: client,
		bucket: bucket,
		ttl:    ttl,
		log:    log.With("component", "gcs_video_store"),
	}, nil
}

func (s *gcsVideoStore) SignedVideoURL(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("lesson has no video object")
	}

	url, err := s.client.Bucket(s.bucket).SignedURL(objectKey, &gcs.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		s.log.Error("failed to sign video url", "object", objectKey, "error", err)
		return "", fmt.Errorf("sign video url: %w", err)
	}
	return url, nil
}
