package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"studyroom-be/internal/model"
	"studyroom-be/internal/repository/contract"
)

// JSONDocumentStore keeps one pretty-printed JSON file per collection.
type JSONDocumentStore struct {
	dir string
}

func NewJSONDocumentStore(dir string) (*JSONDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &JSONDocumentStore{dir: dir}, nil
}

func (s *JSONDocumentStore) path(collection model.Collection) string {
	return filepath.Join(s.dir, collection.FileName())
}

func (s *JSONDocumentStore) Read(ctx context.Context, collection model.Collection, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", collection, contract.ErrDocumentNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", collection, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &contract.ParseError{Collection: collection, Err: err}
	}
	return nil
}

// Write replaces the whole document. The new content goes to a temp file in
// the same directory first and is renamed over the old one.
func (s *JSONDocumentStore) Write(ctx context.Context, collection model.Collection, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", collection, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+collection.FileName()+"-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", collection, err)
	}
	return nil
}

func (s *JSONDocumentStore) EnsureInitialized(ctx context.Context, collection model.Collection, defaultValue interface{}) error {
	_, err := os.Stat(s.path(collection))
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", collection, err)
	}
	return s.Write(ctx, collection, defaultValue)
}
