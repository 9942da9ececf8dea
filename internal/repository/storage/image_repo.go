// Package storage keeps product photos in an object store
package storage

import (
	"context"
	"io"
)

// ImageRepository stores image objects by path
type ImageRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	// URL returns an address the view can load the object from
	URL(ctx context.Context, objectPath string) (string, error)
}
