package memory

import (
	"fmt"
	"time"
)

// Type classifies a memory record. The set is closed; anything else is
// rejected at insertion time.
type Type string

const (
	TypeUserInfo     Type = "user_info"
	TypeConversation Type = "conversation"
	TypeKnowledge    Type = "knowledge"
	TypePreference   Type = "preference"
)

// ParseType validates a memory type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeUserInfo, TypeConversation, TypeKnowledge, TypePreference:
		return Type(s), nil
	}
	return "", fmt.Errorf("memory: unknown memory type %q", s)
}

// Record is a single long-term memory. Content, Embedding, Type,
// Importance, Timestamp, SessionID and Metadata are immutable after
// creation; AccessCount is bumped only by Retrieve.
type Record struct {
	Content     string                 `json:"content"`
	Embedding   []float32              `json:"embedding"`
	Type        Type                   `json:"memory_type"`
	Importance  float64                `json:"importance"`
	Timestamp   time.Time              `json:"timestamp"`
	AccessCount int                    `json:"access_count"`
	SessionID   string                 `json:"session_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func (r *Record) clone() Record {
	out := *r
	return out
}

// ValidateMetadata checks that a metadata map holds only
// JSON-serializable scalars and nested maps/lists of the same.
func ValidateMetadata(m map[string]interface{}) error {
	for k, v := range m {
		if err := validateMetaValue(v); err != nil {
			return fmt.Errorf("memory: metadata key %q: %w", k, err)
		}
	}
	return nil
}

func validateMetaValue(v interface{}) error {
	switch t := v.(type) {
	case nil, string, bool,
		int, int32, int64, float32, float64:
		return nil
	case map[string]interface{}:
		return ValidateMetadata(t)
	case []interface{}:
		for _, e := range t {
			if err := validateMetaValue(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}
