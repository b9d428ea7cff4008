package mirror

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestFileMirror(t *testing.T) *FileMirror {
	t.Helper()
	m, err := NewFileMirror(filepath.Join(t.TempDir(), "metadata.json"), zap.NewNop())
	if err != nil {
		t.Fatalf("create mirror: %v", err)
	}
	return m
}

func TestFileMirrorPublishAndStats(t *testing.T) {
	m := newTestFileMirror(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := m.Publish(ctx, Summarize("user likes tea", "preference", 2.0, "s1", nil, now)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.Publish(ctx, Summarize("capital of France is Paris", "knowledge", 1.0, "", nil, now)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("got total %d, want 2", stats.Total)
	}
	if stats.ByType["preference"] != 1 || stats.ByType["knowledge"] != 1 {
		t.Errorf("unexpected type counts: %v", stats.ByType)
	}
	if stats.AvgImportance != 1.5 {
		t.Errorf("got avg importance %f, want 1.5", stats.AvgImportance)
	}
}

func TestFileMirrorDedupByContentHash(t *testing.T) {
	m := newTestFileMirror(t)
	ctx := context.Background()
	now := time.Now().UTC()

	s := Summarize("repeated fact", "knowledge", 1.0, "", nil, now)
	for i := 0; i < 3; i++ {
		if err := m.Publish(ctx, s); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("got total %d, want 1 (deduplicated)", stats.Total)
	}
	if stats.TotalAccesses != 2 {
		t.Errorf("got %d accesses, want 2 (two re-publishes)", stats.TotalAccesses)
	}
}

func TestSummarizeTruncatesPreview(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	s := Summarize(string(long), "conversation", 1.0, "", nil, time.Now().UTC())
	if len(s.Preview) != previewLimit {
		t.Errorf("got preview length %d, want %d", len(s.Preview), previewLimit)
	}
	if len(s.ContentHash) != 64 {
		t.Errorf("got hash length %d, want 64", len(s.ContentHash))
	}
}
