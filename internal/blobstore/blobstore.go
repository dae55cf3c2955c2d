// Package blobstore provides the content store the importer writes cover art
// into.
//
// The [Store] interface treats the backend as a put-by-key byte sink that
// hands back a retrievable URL. [LocalStore] writes to a directory on disk;
// [S3Store] targets an S3 bucket or any S3-compatible service via a custom
// endpoint.
package blobstore

import "context"

// Store is a key-addressable byte sink for binary assets.
type Store interface {
	// EnsureContainer creates the backing container (directory, bucket) if it
	// does not already exist. Called once per run before any Put.
	EnsureContainer(ctx context.Context) error

	// Put writes data under key with the given content type and returns a URL
	// the object can be retrieved from.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Exists reports whether an object is already stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
