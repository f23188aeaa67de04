package types

import "encoding/json"

// ConversationReference identifies one day's journal, e.g. "2026/02/19".
type ConversationReference = string

type JournalEntry struct {
	ID            string  `json:"id,omitempty"`
	Reference     string  `json:"reference"`
	CreatedAt     string  `json:"created_at,omitempty"`
	UpdatedAt     string  `json:"updated_at,omitempty"`
	LastMessageAt *string `json:"last_message_at,omitempty"`
	MessageCount  int     `json:"message_count"`
	Status        string  `json:"status,omitempty"`
}

// JournalMessage is a raw backend message row. ToolCalls stays raw so a
// malformed tool-call payload never fails decoding of the whole row.
type JournalMessage struct {
	ID              string          `json:"id,omitempty"`
	Role            *string         `json:"role,omitempty"`
	Content         *string         `json:"content,omitempty"`
	Sequence        *int64          `json:"sequence,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	ToolCalls       json.RawMessage `json:"tool_calls,omitempty"`
	ClientMessageID string          `json:"client_message_id,omitempty"`
}

type JournalToolCall struct {
	ToolCallID  string  `json:"tool_call_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Response    *string `json:"response,omitempty"`
	Error       *string `json:"error,omitempty"`
}

func StringPtr(v string) *string {
	return &v
}
