package memory

import (
	"context"
	"fmt"
	"strings"
)

// BuildContext assembles prompt context for a conversational turn:
// the short-term transcript (when a buffer is given) followed by the
// top-k relevant long-term memories. Retrieval failures degrade to
// whatever context is available; this never errors.
func (s *Store) BuildContext(ctx context.Context, query string, k int, shortTerm *ShortTermBuffer) string {
	var parts []string

	if shortTerm != nil {
		if transcript := shortTerm.Render(); transcript != "" {
			parts = append(parts, transcript)
		}
	}

	records := s.Retrieve(ctx, query, k, RetrieveOptions{})
	if len(records) > 0 {
		var sb strings.Builder
		sb.WriteString("Relevant Memories:\n")
		for i, rec := range records {
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, rec.Type, rec.Content)
		}
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, "\n\n")
}
