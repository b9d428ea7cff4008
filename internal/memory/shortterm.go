package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ShortTermEntry is one conversational turn in the short-term buffer.
type ShortTermEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ShortTermBuffer is a FIFO window over the most recent conversation
// turns. It holds at most 2×pairs entries (a user/assistant message
// per turn); the oldest entries drop first. No relevance scoring
// applies, recency alone governs retention.
type ShortTermBuffer struct {
	pairs int
	now   func() time.Time

	mu      sync.Mutex
	entries []ShortTermEntry
}

// NewShortTermBuffer creates a buffer holding up to pairs conversation
// turns.
func NewShortTermBuffer(pairs int) *ShortTermBuffer {
	if pairs <= 0 {
		pairs = 10
	}
	return &ShortTermBuffer{pairs: pairs, now: time.Now}
}

// Append pushes a timestamped entry, discarding the oldest entries
// once capacity is exceeded.
func (b *ShortTermBuffer) Append(role, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, ShortTermEntry{
		Role:      role,
		Content:   content,
		Timestamp: b.now().UTC(),
	})
	if max := b.pairs * 2; len(b.entries) > max {
		b.entries = b.entries[len(b.entries)-max:]
	}
}

// Len returns the current entry count.
func (b *ShortTermBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns a copy of the buffered entries, oldest first.
func (b *ShortTermBuffer) Entries() []ShortTermEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ShortTermEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Reset drops all buffered entries.
func (b *ShortTermBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

// Render formats the buffered turns as a most-recent-last transcript,
// or "" when the buffer is empty.
func (b *ShortTermBuffer) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Recent Conversation:\n")
	for i, e := range b.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s", capitalize(e.Role), e.Content)
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
