package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
)

// FileStore persists the fallback pool as a JSON document at a fixed
// local path.
type FileStore struct {
	path   string
	logger logs.Logger
}

func NewFileStore(path string, logger logs.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileStore) Load(ctx context.Context) (*proxy.Pool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		s.logger.Warn("failed to read proxy pool file", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("corrupt proxy pool file, ignoring", "path", s.path, "error", err)
		return nil, fmt.Errorf("%w: corrupt file %s", ErrNotFound, s.path)
	}

	return decode(doc), nil
}

// Save overwrites the pool file atomically (temp file + rename) so a
// crash mid-write never leaves a truncated document behind.
func (s *FileStore) Save(ctx context.Context, pool *proxy.Pool) error {
	data, err := json.MarshalIndent(encode(pool), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pool: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".proxies-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write pool file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close pool file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace pool file: %w", err)
	}

	return nil
}
