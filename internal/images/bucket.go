package images

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// BucketConfig configures a BucketStore.
type BucketConfig struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsFile string
}

type writerFunc func(ctx context.Context, object, contentType string) io.WriteCloser

// BucketStore uploads images to a Cloud Storage bucket and references them by
// public URL.
type BucketStore struct {
	bucket    string
	baseURL   string
	newWriter writerFunc
	client    *storage.Client
}

// NewBucketStore connects to Cloud Storage.
func NewBucketStore(ctx context.Context, cfg BucketConfig) (*BucketStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("image bucket is not configured")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	bucket := client.Bucket(cfg.Bucket)
	s := newBucketStore(cfg.Bucket, cfg.PublicBaseURL, func(ctx context.Context, object, contentType string) io.WriteCloser {
		w := bucket.Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	})
	s.client = client
	return s, nil
}

func newBucketStore(bucket, baseURL string, newWriter writerFunc) *BucketStore {
	if baseURL == "" {
		baseURL = defaultPublicBaseURL
	}
	return &BucketStore{
		bucket:    bucket,
		baseURL:   strings.TrimRight(baseURL, "/"),
		newWriter: newWriter,
	}
}

// Save uploads the image under productos/ and returns its public URL.
func (s *BucketStore) Save(ctx context.Context, upload Upload) (string, error) {
	object := "productos/" + objectName(upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.newWriter(ctx, object, contentType)
	if _, err := io.Copy(w, upload.Body); err != nil {
		// Cancel before Close so the partial upload is abandoned, not committed.
		cancel()
		w.Close()
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	// The object only exists once the writer is closed without error.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, object), nil
}

func (s *BucketStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
