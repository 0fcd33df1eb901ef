package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/finsightlabs/finsight/internal/core/domain"
)

// Storage keeps uploaded documents as flat files under one directory.
// Keys come from the ingest usecase as "<document id>_<sanitized name>"
// and are rejected if they try to address anything outside basePath.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

// Save writes through a temp file and renames, so the worker never
// opens a half-written upload.
func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish object: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "open object", err)
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (s *Storage) objectPath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", domain.WrapError(domain.ErrInvalidInput, "storage key", fmt.Errorf("unsafe key %q", key))
	}
	return filepath.Join(s.basePath, key), nil
}
