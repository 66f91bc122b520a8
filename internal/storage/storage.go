// Package storage is the object-storage boundary: opaque bytes in, public
// URL out. Media messages carry URLs issued here; the store itself is an
// external collaborator and only this interface is part of the core.
package storage

import "context"

type BlobStore interface {
	// Upload stores the bytes under bucket/path and returns the stored path.
	Upload(ctx context.Context, bucket, path string, data []byte) (string, error)
	// PublicURL returns the URL a client can fetch the object from.
	PublicURL(bucket, path string) string
}
