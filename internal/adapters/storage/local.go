// internal/adapters/storage/local.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ammerola/lending-be/internal/core/ports"
)

// LocalStorage writes files under a directory. Used in development when no
// bucket is configured.
type LocalStorage struct {
	root   string
	logger *slog.Logger
}

var _ ports.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(root string, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{root: root, logger: logger.With(slog.String("storage", "local"))}, nil
}

// Upload writes body to root/key and returns the file path
func (s *LocalStorage) Upload(ctx context.Context, key string, body []byte, _ string) (string, error) {
	// Rooting the key before cleaning keeps it inside s.root.
	path := filepath.Join(s.root, filepath.Clean("/"+key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.InfoContext(ctx, "file stored", slog.String("path", path))
	return path, nil
}
