// Package blob is the object-store collaborator: get/head/put of binary
// objects keyed by opaque strings. The core pipeline only ever touches the
// Store interface; page image keys from manifests resolve here.
package blob

import (
	"context"
	"io"
)

// Object is a stored object opened for reading. Callers own Body and must
// close it.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Info describes a stored object without opening it.
type Info struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is the narrow object-store interface the rest of the system sees.
// Missing keys surface as apperror.ErrNotFound from every method.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Head(ctx context.Context, key string) (*Info, error)
	Put(ctx context.Context, key, contentType, owner string, body io.Reader) error
}
