// Package reconcile turns backend message rows from every source (cached
// snapshot, paginated history, live stream) into one canonical, ordered,
// deduplicated list. Every function here is total over malformed input.
package reconcile

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"

	"assistant/internal/types"
)

var newID = uuid.NewString

// NewClientMessageID returns a fresh idempotency key for an outgoing message.
func NewClientMessageID() string {
	return newID()
}

func ToStoredMessage(raw types.JournalMessage) types.Message {
	role := types.MessageRoleAssistant
	if raw.Role != nil {
		role = types.MessageRole(*raw.Role)
	}
	content := ""
	if raw.Content != nil {
		content = *raw.Content
	}
	calls := parseToolCalls(raw.ToolCalls)
	msg := types.Message{
		Role:            role,
		Content:         content,
		ClientMessageID: messageIdentity(raw),
		CreatedAt:       raw.CreatedAt,
		ToolCalls:       calls,
		ProcessInfos:    toolStatuses(calls),
	}
	if raw.Sequence != nil {
		msg.Sequence = types.Int64Ptr(*raw.Sequence)
	}
	return msg
}

func messageIdentity(raw types.JournalMessage) string {
	if raw.ClientMessageID != "" {
		return raw.ClientMessageID
	}
	if raw.ID != "" {
		return raw.ID
	}
	return NewClientMessageID()
}

// ToChronologicalStoredMessages re-establishes oldest-to-newest order for
// rows the backend returns newest-first. Rows without a sequence come first
// and keep their relative order.
func ToChronologicalStoredMessages(rows []types.JournalMessage) []types.Message {
	sorted := append([]types.JournalMessage(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sequenceLess(sorted[i].Sequence, sorted[j].Sequence)
	})
	out := make([]types.Message, 0, len(sorted))
	for _, row := range sorted {
		out = append(out, ToStoredMessage(row))
	}
	return out
}

func sequenceLess(left, right *int64) bool {
	switch {
	case left == nil && right == nil:
		return false
	case left == nil:
		return true
	case right == nil:
		return false
	default:
		return *left < *right
	}
}

// ToProcessInfos returns nil unless raw is a non-empty list holding at least
// one object with string tool_call_id, title and description. Invalid
// entries are dropped one by one.
func ToProcessInfos(raw json.RawMessage) []types.ToolStatus {
	return toolStatuses(parseToolCalls(raw))
}

func ToToolStatus(call types.JournalToolCall) types.ToolStatus {
	status := types.ToolStatus{
		ID:          NewClientMessageID(),
		ToolCallID:  call.ToolCallID,
		Title:       call.Title,
		Description: call.Description,
		State:       types.ToolStatePending,
	}
	if call.Error != nil && *call.Error != "" {
		status.Description = *call.Error
		status.State = types.ToolStateError
		return status
	}
	if call.Response != nil && *call.Response != "" {
		status.Response = *call.Response
		status.State = types.ToolStateResolved
	}
	return status
}

func toolStatuses(calls []types.JournalToolCall) []types.ToolStatus {
	if len(calls) == 0 {
		return nil
	}
	out := make([]types.ToolStatus, 0, len(calls))
	for _, call := range calls {
		out = append(out, ToToolStatus(call))
	}
	return out
}

func parseToolCalls(raw json.RawMessage) []types.JournalToolCall {
	if len(raw) == 0 {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil
	}
	calls := make([]types.JournalToolCall, 0, len(entries))
	for _, entry := range entries {
		call, ok := parseToolCall(entry)
		if !ok {
			continue
		}
		calls = append(calls, call)
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}

func parseToolCall(raw json.RawMessage) (types.JournalToolCall, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return types.JournalToolCall{}, false
	}
	id, ok := fields["tool_call_id"].(string)
	if !ok {
		return types.JournalToolCall{}, false
	}
	title, ok := fields["title"].(string)
	if !ok {
		return types.JournalToolCall{}, false
	}
	description, ok := fields["description"].(string)
	if !ok {
		return types.JournalToolCall{}, false
	}
	call := types.JournalToolCall{
		ToolCallID:  id,
		Title:       title,
		Description: description,
	}
	if response, ok := fields["response"].(string); ok {
		call.Response = types.StringPtr(response)
	}
	if errText, ok := fields["error"].(string); ok {
		call.Error = types.StringPtr(errText)
	}
	return call, true
}
