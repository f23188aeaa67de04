package types

type StreamEventType string

const (
	StreamEventToolCall     StreamEventType = "tool_call"
	StreamEventMessageChunk StreamEventType = "message_chunk"
	StreamEventToolResponse StreamEventType = "tool_response"
	StreamEventError        StreamEventType = "error"
	StreamEventDone         StreamEventType = "done"
)

// StreamEvent is one frame of the live chat channel. Only the fields of the
// variant named by Type are meaningful.
type StreamEvent struct {
	Type        StreamEventType `json:"type"`
	ToolCallID  string          `json:"tool_call_id,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Text        string          `json:"text,omitempty"`
	Message     string          `json:"message,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

func (e StreamEvent) Terminal() bool {
	return e.Type == StreamEventDone || e.Type == StreamEventError
}
