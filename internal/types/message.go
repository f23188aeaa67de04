package types

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type ToolState string

const (
	ToolStatePending     ToolState = "pending"
	ToolStateResolved    ToolState = "resolved"
	ToolStateError       ToolState = "error"
	ToolStateInterrupted ToolState = "interrupted"
)

// Message is the canonical, UI-ready chat entry. ClientMessageID is the
// identity key; Sequence is the backend ordering key and stays nil until the
// backend acknowledges the message.
type Message struct {
	Role            MessageRole       `json:"role"`
	Content         string            `json:"content"`
	ClientMessageID string            `json:"clientMessageId"`
	Sequence        *int64            `json:"sequence,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	ToolCalls       []JournalToolCall `json:"toolCalls,omitempty"`
	ProcessInfos    []ToolStatus      `json:"processInfos,omitempty"`
}

type ToolStatus struct {
	ID          string    `json:"id"`
	ToolCallID  string    `json:"toolCallId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Response    string    `json:"response,omitempty"`
	State       ToolState `json:"state"`
}

func (m Message) HasSequence() bool {
	return m.Sequence != nil
}

// SequenceValue returns the sequence and whether it is set.
func (m Message) SequenceValue() (int64, bool) {
	if m.Sequence == nil {
		return 0, false
	}
	return *m.Sequence, true
}

func Int64Ptr(v int64) *int64 {
	return &v
}

func CloneMessage(m Message) Message {
	out := m
	if m.Sequence != nil {
		seq := *m.Sequence
		out.Sequence = &seq
	}
	if m.ToolCalls != nil {
		out.ToolCalls = append([]JournalToolCall(nil), m.ToolCalls...)
	}
	if m.ProcessInfos != nil {
		out.ProcessInfos = append([]ToolStatus(nil), m.ProcessInfos...)
	}
	return out
}

func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = CloneMessage(m)
	}
	return out
}
