package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalConfig holds configuration for disk-backed storage.
type LocalConfig struct {
	Root      string // directory holding the objects
	URLPrefix string // public path the directory is served under, e.g. /media
}

// LocalStorage implements ObjectStorage on the local filesystem.
type LocalStorage struct {
	root      string
	urlPrefix string
}

var _ ObjectStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new disk-backed storage rooted at cfg.Root.
func NewLocalStorage(cfg *LocalConfig) (*LocalStorage, error) {
	if cfg.Root == "" {
		return nil, errors.New("local storage root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	return &LocalStorage{
		root:      root,
		urlPrefix: strings.TrimSuffix(cfg.URLPrefix, "/"),
	}, nil
}

// Root returns the absolute directory objects are written under.
func (s *LocalStorage) Root() string {
	return s.root
}

// URLPrefix returns the public path prefix objects are served under.
func (s *LocalStorage) URLPrefix() string {
	return s.urlPrefix
}

// EnsureBucket creates the root and the well-known prefix directories.
func (s *LocalStorage) EnsureBucket(ctx context.Context) error {
	for _, dir := range []string{s.root, filepath.Join(s.root, PrefixTemplates), filepath.Join(s.root, PrefixUserMemes)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return nil
}

// Upload writes the object to a temp file and renames it into place so
// readers never observe a partial file.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to upload object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to upload object: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Download opens the object file.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return f, nil
}

// GetURL returns the public path for key.
func (s *LocalStorage) GetURL(key string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(path.Clean("/"+key), "/")
}

// Delete removes the object file.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists checks if the object file exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object existence: %w", err)
}

// resolve maps key to a path under root, rejecting keys that escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
