package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilePersister keeps the blob in one local JSON file.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("FilePersister.Load: %w", err)
	}
	return data, nil
}

// Save writes to a temporary file next to the target and renames it over,
// so a crash never leaves a half-written blob.
func (p *FilePersister) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("FilePersister.Save: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("FilePersister.Save: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("FilePersister.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("FilePersister.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("FilePersister.Save: rename: %w", err)
	}
	return nil
}

func (p *FilePersister) Close() error { return nil }
