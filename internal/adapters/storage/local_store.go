package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sevadesk/civicbook/internal/domain/providers"
	"github.com/sevadesk/civicbook/pkg/config"
)

// LocalStore implements the DocumentStore interface on the local filesystem.
// Files are grouped per booking under the configured base path; the returned
// URL is the public path the API serves them from.
type LocalStore struct {
	basePath string
	baseURL  string
}

// NewLocalStore creates a document store rooted at the configured base path
func NewLocalStore(cfg *config.StorageConfig) (providers.DocumentStore, error) {
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{
		basePath: cfg.BasePath,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Save persists an uploaded document and returns its stable URL. The stored
// name is randomized so repeated uploads of the same filename never collide.
func (s *LocalStore) Save(ctx context.Context, bookingID, filename string, content io.Reader) (string, error) {
	dir := filepath.Join(s.basePath, bookingID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create booking directory: %w", err)
	}

	stored := uuid.New().String() + filepath.Ext(filename)
	target := filepath.Join(dir, stored)

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create document file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write document file: %w", err)
	}

	return path.Join(s.baseURL, bookingID, stored), nil
}
