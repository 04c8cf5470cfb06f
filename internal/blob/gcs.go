package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store on a Google Cloud Storage bucket.
type GCSStore struct {
	bucket  *storage.BucketHandle
	baseURL string
}

func NewGCSStore(client *storage.Client, bucket, baseURL string) *GCSStore {
	return &GCSStore{
		bucket:  client.Bucket(bucket),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, mediaType string) (*PutResult, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = mediaType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	return &PutResult{Key: key, URI: s.baseURL + "/" + key}, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list prefix %s: %w", prefix, err)
		}
		if err := s.Delete(ctx, attrs.Name); err != nil {
			return fmt.Errorf("failed to delete %s: %w", attrs.Name, err)
		}
	}
}

func (s *GCSStore) CreateMarker(ctx context.Context, prefixKey string) (*PutResult, error) {
	if !strings.HasSuffix(prefixKey, "/") {
		prefixKey += "/"
	}
	return s.Put(ctx, prefixKey, nil, "application/x-directory")
}
