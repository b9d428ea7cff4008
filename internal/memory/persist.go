package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nidhogg/mnemo/internal/vectorindex"
	"go.uber.org/zap"
)

// Persist writes the index and the ordered record list to their
// configured paths as a matched pair. The lock is held only long
// enough to snapshot the in-memory state; disk I/O runs unlocked.
func (s *Store) Persist() error {
	s.mu.Lock()
	ix := s.index.Snapshot()
	records := make([]Record, len(s.records))
	for i, rec := range s.records {
		records[i] = rec.clone()
	}
	s.mu.Unlock()

	if err := s.writeIndex(ix); err != nil {
		return err
	}
	if err := s.writeRecords(records); err != nil {
		return err
	}

	s.logger.Info("persisted memories",
		zap.Int("count", len(records)),
		zap.String("index", s.opts.IndexPath),
		zap.String("records", s.opts.RecordsPath))
	return nil
}

// Load replaces the in-memory state from the persisted pair.
// Deserialization runs unlocked; the swap takes the lock once.
//
// If either artifact is missing, or the two disagree on record count,
// or the stored dimension does not match the configured one, the store
// initializes empty: an inconsistent pairing is worse than no memory.
func (s *Store) Load() error {
	indexExists := fileExists(s.opts.IndexPath)
	recordsExist := fileExists(s.opts.RecordsPath)

	if !indexExists && !recordsExist {
		s.logger.Info("no persisted memories found")
		return nil
	}
	if indexExists != recordsExist {
		s.logger.Warn("persisted snapshot incomplete, starting empty",
			zap.Bool("index_present", indexExists),
			zap.Bool("records_present", recordsExist))
		s.Clear()
		return nil
	}

	ix, records, err := s.readSnapshot()
	if err != nil {
		s.logger.Warn("persisted snapshot unreadable, starting empty", zap.Error(err))
		s.Clear()
		return nil
	}

	ptrs := make([]*Record, len(records))
	for i := range records {
		rec := records[i]
		ptrs[i] = &rec
	}

	s.mu.Lock()
	s.index = ix
	s.records = ptrs
	s.mu.Unlock()

	s.logger.Info("loaded memories", zap.Int("count", len(records)))
	return nil
}

func (s *Store) readSnapshot() (*vectorindex.Index, []Record, error) {
	f, err := os.Open(s.opts.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("memory: open index: %w", err)
	}
	defer f.Close()
	ix, err := vectorindex.ReadFrom(f)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(s.opts.RecordsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("memory: read records: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("memory: parse records: %w", err)
	}

	if ix.Dimension() != s.opts.Dimension {
		return nil, nil, fmt.Errorf("memory: snapshot dimension %d, store expects %d", ix.Dimension(), s.opts.Dimension)
	}
	if ix.Size() != len(records) {
		return nil, nil, fmt.Errorf("memory: index holds %d vectors but %d records persisted", ix.Size(), len(records))
	}
	for i := range records {
		if len(records[i].Embedding) != s.opts.Dimension {
			return nil, nil, fmt.Errorf("memory: record %d embedding dimension %d, store expects %d", i, len(records[i].Embedding), s.opts.Dimension)
		}
	}
	return ix, records, nil
}

func (s *Store) writeIndex(ix *vectorindex.Index) error {
	if err := os.MkdirAll(filepath.Dir(s.opts.IndexPath), 0o755); err != nil {
		return fmt.Errorf("memory: create data dir: %w", err)
	}
	tmp := s.opts.IndexPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("memory: create index file: %w", err)
	}
	if _, err := ix.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("memory: close index file: %w", err)
	}
	if err := os.Rename(tmp, s.opts.IndexPath); err != nil {
		return fmt.Errorf("memory: rename index file: %w", err)
	}
	return nil
}

func (s *Store) writeRecords(records []Record) error {
	if err := os.MkdirAll(filepath.Dir(s.opts.RecordsPath), 0o755); err != nil {
		return fmt.Errorf("memory: create data dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal records: %w", err)
	}
	tmp := s.opts.RecordsPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("memory: write records: %w", err)
	}
	if err := os.Rename(tmp, s.opts.RecordsPath); err != nil {
		return fmt.Errorf("memory: rename records file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
