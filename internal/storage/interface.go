package storage

import (
	"context"
	"io"
)

// Key prefixes for the two kinds of stored images.
const (
	PrefixTemplates = "templates/"
	PrefixUserMemes = "user_memes/"
)

// ObjectStorage is the content store behind templates and saved memes.
type ObjectStorage interface {
	// EnsureBucket prepares the backing location (bucket or directory).
	EnsureBucket(ctx context.Context) error

	// Upload writes an object under key, replacing any existing object
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download opens an object for reading
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL clients use to fetch an object
	GetURL(key string) string

	// Delete removes an object; deleting a missing object is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
