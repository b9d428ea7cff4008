package memory

import (
	"strings"
	"testing"
)

func TestShortTermBufferDropsOldestBeyondCapacity(t *testing.T) {
	b := NewShortTermBuffer(2) // capacity 4 entries

	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		b.Append("user", msg)
	}

	entries := b.Entries()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if entries[0].Content != "two" {
		t.Errorf("got oldest %q, want %q (FIFO drop)", entries[0].Content, "two")
	}
	if entries[3].Content != "five" {
		t.Errorf("got newest %q, want %q", entries[3].Content, "five")
	}
}

func TestShortTermBufferRender(t *testing.T) {
	b := NewShortTermBuffer(3)
	if b.Render() != "" {
		t.Fatal("empty buffer must render to empty string")
	}

	b.Append("user", "hello")
	b.Append("assistant", "hi")

	out := b.Render()
	if !strings.HasPrefix(out, "Recent Conversation:\n") {
		t.Errorf("missing header:\n%s", out)
	}
	userAt := strings.Index(out, "User: hello")
	asstAt := strings.Index(out, "Assistant: hi")
	if userAt < 0 || asstAt < 0 {
		t.Fatalf("missing turns:\n%s", out)
	}
	if asstAt < userAt {
		t.Error("transcript must be most-recent-last")
	}
}

func TestShortTermBufferReset(t *testing.T) {
	b := NewShortTermBuffer(2)
	b.Append("user", "hello")
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("got %d entries after reset, want 0", b.Len())
	}
}
