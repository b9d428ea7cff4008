// Package mirror keeps a lightweight external copy of memory metadata
// for statistics and management tooling. Publishing is fire-and-forget
// from the store's point of view: a mirror failure never affects the
// memory core.
package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Summary is the lightweight projection of a memory record that gets
// mirrored. It carries no embedding and at most a content preview.
type Summary struct {
	ContentHash string                 `json:"content_hash"`
	Preview     string                 `json:"content_preview"`
	MemoryType  string                 `json:"memory_type"`
	Importance  float64                `json:"importance"`
	AccessCount int                    `json:"access_count"`
	SessionID   string                 `json:"session_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	LastSeenAt  time.Time              `json:"last_seen_at"`
}

// Stats aggregates what the mirror currently holds.
type Stats struct {
	Total         int            `json:"total"`
	ByType        map[string]int `json:"by_type"`
	TotalAccesses int            `json:"total_accesses"`
	AvgImportance float64        `json:"avg_importance"`
}

// Mirror receives summaries of successfully added memories.
type Mirror interface {
	Publish(ctx context.Context, s Summary) error
	Stats(ctx context.Context) (Stats, error)
}

const previewLimit = 200

// Summarize builds a Summary for the given content and attributes.
func Summarize(content, memoryType string, importance float64, sessionID string, metadata map[string]interface{}, createdAt time.Time) Summary {
	sum := sha256.Sum256([]byte(content))
	preview := content
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	return Summary{
		ContentHash: hex.EncodeToString(sum[:]),
		Preview:     preview,
		MemoryType:  memoryType,
		Importance:  importance,
		SessionID:   sessionID,
		Metadata:    metadata,
		CreatedAt:   createdAt,
		LastSeenAt:  createdAt,
	}
}

func aggregate(summaries []Summary) Stats {
	stats := Stats{ByType: make(map[string]int)}
	var importanceSum float64
	for _, s := range summaries {
		stats.Total++
		stats.ByType[s.MemoryType]++
		stats.TotalAccesses += s.AccessCount
		importanceSum += s.Importance
	}
	if stats.Total > 0 {
		stats.AvgImportance = importanceSum / float64(stats.Total)
	}
	return stats
}
