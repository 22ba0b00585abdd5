package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
)

type document struct {
	ChannelMappings []*Mapping `json:"channel_mappings"`
}

// FileStore persists channel mappings as a JSON document. A missing or
// corrupt file degrades to an empty mapping list rather than an error;
// losing the queue is recoverable, crashing the bot is not.
type FileStore struct {
	path   string
	logger logs.Logger
}

func NewFileStore(path string, logger logs.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load() []*Mapping {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("mappings file unreadable, starting empty", "path", s.path, "error", err)
		return nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("mappings file corrupt, starting empty", "path", s.path, "error", err)
		return nil
	}

	for _, m := range doc.ChannelMappings {
		if m.Processed == nil {
			m.Processed = []string{}
		}
		if m.Unprocessed == nil {
			m.Unprocessed = []string{}
		}
	}
	return doc.ChannelMappings
}

func (s *FileStore) Save(mappings []*Mapping) error {
	data, err := json.MarshalIndent(document{ChannelMappings: mappings}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create mappings dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mappings-*.json")
	if err != nil {
		return fmt.Errorf("create temp mappings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write mappings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close mappings file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace mappings file: %w", err)
	}
	return nil
}
