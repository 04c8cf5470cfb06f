// Package blob is the narrow adapter over the object store. Keys are
// path-like strings; folder markers are zero-byte objects whose key ends
// in "/".
package blob

import "context"

// PutResult reports where an object landed.
type PutResult struct {
	Key string
	URI string
}

// Store is the object-store surface the service layer consumes.
type Store interface {
	Put(ctx context.Context, key string, data []byte, mediaType string) (*PutResult, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	CreateMarker(ctx context.Context, prefixKey string) (*PutResult, error)
}
