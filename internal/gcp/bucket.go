package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
	"storybook-backend/internal/imgutil"
	"storybook-backend/internal/logger"
	"storybook-backend/internal/models"
)

// BucketStore keeps page illustrations in a publicly readable GCS bucket.
type BucketStore struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucket        string
}

func NewBucketStore(ctx context.Context, log *logger.Logger, bucket, credentialsFile string) (*BucketStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Info("GCS image store initialized", "bucket", bucket)
	return &BucketStore{
		log:           log.With("service", "BucketStore"),
		storageClient: client,
		bucket:        bucket,
	}, nil
}

func (bs *BucketStore) Upload(ctx context.Context, dataURL, folder string) (*models.StoredImage, error) {
	mimeType, data, err := imgutil.DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	key := imgutil.ObjectKey(folder, mimeType)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	return &models.StoredImage{PublicID: key, URL: PublicURL(bs.bucket, key)}, nil
}

func (bs *BucketStore) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := bs.storageClient.Bucket(bs.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		bs.log.Warn("GCS object already gone", "key", publicID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", publicID, bs.bucket, err)
	}
	return nil
}

func (bs *BucketStore) Close() error {
	return bs.storageClient.Close()
}

func PublicURL(bucket, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}
