// Package storage holds the object-store abstraction used for uploaded
// broker CSV files. The durable URL of a stored file becomes the provenance
// link on every invoice row parsed from it.
package storage

import (
	"context"
	"io"
	"time"
)

// PutObjectOptions define optional parameters for storing a file.
// Size should be the exact byte count when known; -1 lets the backend chunk.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored file.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object store client.
type Storage interface {
	// Put stores an object under key from the reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
