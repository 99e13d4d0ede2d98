package domain

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn in a session transcript. Immutable once appended.
// Timestamps and ids are assigned server-side at append time; client-supplied
// values are never authoritative.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Sources   []SourceRef `json:"sources,omitempty"`
	Fallback  bool        `json:"fallback,omitempty"`
}

// Session is an ephemeral per-user transcript. Mutated only by appending
// messages or wholesale clearing; expires after a sliding inactivity window.
type Session struct {
	ID           string        `json:"session_id"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	Messages     []ChatMessage `json:"messages"`
}

func (s *Session) MessageCount() int {
	if s == nil {
		return 0
	}
	return len(s.Messages)
}
