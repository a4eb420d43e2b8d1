package storage

import (
	"context"
	"io"
	"time"
)

// Package storage holds the object-store abstraction the document workflow
// persists PDF content through. Everything streams; nothing touches local
// disk.

// PutObjectOptions are optional upload parameters. Size is the exact byte
// count when known, -1 otherwise (the backend then chunks the stream).
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object store. Keys are opaque locators owned
// by the caller; original uploads and stamped copies live under distinct
// key prefixes.
type Storage interface {
	// Put uploads an object under key from the reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns the object's content as a streaming reader with its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading the object
	// without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
