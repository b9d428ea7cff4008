package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FileMirror stores memory summaries in a single JSON file, keyed by
// content hash. Re-publishing a known hash bumps its access count
// instead of appending a duplicate entry.
type FileMirror struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewFileMirror creates a FileMirror writing to path, creating the
// parent directory if needed.
func NewFileMirror(path string, logger *zap.Logger) (*FileMirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mirror: create data dir: %w", err)
	}
	return &FileMirror{path: path, logger: logger}, nil
}

// Publish records the summary, deduplicating by content hash.
func (m *FileMirror) Publish(ctx context.Context, s Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.read()
	if err != nil {
		return err
	}

	updated := false
	for i := range entries {
		if entries[i].ContentHash == s.ContentHash {
			entries[i].AccessCount++
			entries[i].LastSeenAt = time.Now().UTC()
			updated = true
			break
		}
	}
	if !updated {
		entries = append(entries, s)
	}

	if err := m.write(entries); err != nil {
		return err
	}
	m.logger.Debug("mirrored memory summary",
		zap.String("hash", s.ContentHash[:12]),
		zap.Bool("dedup", updated))
	return nil
}

// Stats aggregates the mirrored summaries.
func (m *FileMirror) Stats(ctx context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := m.read()
	if err != nil {
		return Stats{}, err
	}
	return aggregate(entries), nil
}

func (m *FileMirror) read() ([]Summary, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mirror: read %s: %w", m.path, err)
	}
	var entries []Summary
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("mirror: parse %s: %w", m.path, err)
	}
	return entries, nil
}

// write replaces the metadata file atomically via temp file + rename.
func (m *FileMirror) write(entries []Summary) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("mirror: marshal summaries: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("mirror: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("mirror: rename %s: %w", tmp, err)
	}
	return nil
}
