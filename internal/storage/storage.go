// Package storage persists uploaded media and resolves stored references to URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage saves blobs under a relative name and returns a retrievable reference.
type Storage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

// ErrInvalidRef is returned for references that escape the storage root.
var ErrInvalidRef = errors.New("invalid storage reference")

// FileStorage keeps media on the local filesystem under Root and serves it
// below BaseURL.
type FileStorage struct {
	Root    string
	BaseURL string
}

// NewFileStorage returns a FileStorage rooted at root.
func NewFileStorage(root, baseURL string) *FileStorage {
	if baseURL == "" {
		baseURL = "/media/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FileStorage{Root: root, BaseURL: baseURL}
}

func (s *FileStorage) resolve(ref string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(ref))
	if clean == "/" || strings.Contains(ref, "..") {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes data to name. An existing file with the same name is replaced.
func (s *FileStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return filepath.ToSlash(name), nil
}

// Delete removes ref. Deleting a missing file is not an error.
func (s *FileStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public URL for ref, or "" for an empty ref.
func (s *FileStorage) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.BaseURL + strings.TrimPrefix(filepath.ToSlash(ref), "/")
}
