package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cendekia-ai/cendekia/internal/model"
)

// FileStore keeps the feedback log in a single JSON array file. Every
// write re-reads and rewrites the whole file under one mutex, so all
// writers are serialized. Suitable for single-process deployments; use
// SQLiteStore where several processes share the log.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a JSON-file store at path, creating the parent
// directory as needed. A missing file reads as an empty log.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("feedback: create log directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Append adds one record to the log file.
func (s *FileStore) Append(_ context.Context, rec model.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	return s.save(append(records, rec))
}

// Update replaces the record with matching QueryID.
func (s *FileStore) Update(_ context.Context, rec model.FeedbackRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].QueryID == rec.QueryID {
			records[i] = rec
			return s.save(records)
		}
	}
	return ErrNotFound
}

// All returns the log in append order.
func (s *FileStore) All(_ context.Context) ([]model.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Close is a no-op; the file is not held open between operations.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() ([]model.FeedbackRecord, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("feedback: read log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []model.FeedbackRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("feedback: parse log: %w", err)
	}
	return records, nil
}

func (s *FileStore) save(records []model.FeedbackRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("feedback: encode log: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("feedback: write log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("feedback: replace log: %w", err)
	}
	return nil
}
