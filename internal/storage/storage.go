// Package storage keeps uploaded media on the local filesystem
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Cleaner removes a previously stored file by its public URL
type Cleaner interface {
	Remove(ctx context.Context, url string) error
}

// localStorage stores files under basePath/folder/name and serves them under baseURL
type localStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath, baseURL string) *localStorage {
	return &localStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

func (s *localStorage) generatePath(name, folder string) string {
	return filepath.Join(s.basePath, folder, name)
}

// Create creates a new file and returns a WriteCloser
func (s *localStorage) Create(name, folder string) (io.WriteCloser, error) {
	path := s.generatePath(name, folder)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

// Delete removes a stored file
func (s *localStorage) Delete(name, folder string) error {
	return os.Remove(s.generatePath(name, folder))
}

// URL returns the public URL of a stored file
func (s *localStorage) URL(name, folder string) string {
	return s.baseURL + "/" + folder + "/" + name
}

// Remove deletes the file behind a public URL.
// URLs outside the upload base and files that are already gone are ignored.
func (s *localStorage) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || rel == "" {
		return nil
	}
	folder, name, ok := strings.Cut(rel, "/")
	if !ok || !isSafeName(folder) || !isSafeName(name) {
		return nil
	}

	if err := s.Delete(name, folder); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
