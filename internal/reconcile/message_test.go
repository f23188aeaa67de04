package reconcile

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"assistant/internal/types"
)

func row(id string, seq int64, content string) types.JournalMessage {
	return types.JournalMessage{
		ID:       id,
		Role:     types.StringPtr("assistant"),
		Content:  types.StringPtr(content),
		Sequence: types.Int64Ptr(seq),
	}
}

func contents(messages []types.Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.Content)
	}
	return out
}

func TestToChronologicalStoredMessagesOrdersNewestFirstRows(t *testing.T) {
	rows := []types.JournalMessage{
		row("m3", 3, "newest"),
		row("m2", 2, "middle"),
		row("m1", 1, "oldest"),
	}
	got := contents(ToChronologicalStoredMessages(rows))
	want := []string{"oldest", "middle", "newest"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestToChronologicalStoredMessagesPutsUnsequencedFirst(t *testing.T) {
	rows := []types.JournalMessage{
		row("m5", 5, "five"),
		{ID: "pending-a", Role: types.StringPtr("user"), Content: types.StringPtr("pending a")},
		row("m2", 2, "two"),
		{ID: "pending-b", Role: types.StringPtr("user"), Content: types.StringPtr("pending b")},
	}
	got := ToChronologicalStoredMessages(rows)
	want := []string{"pending a", "pending b", "two", "five"}
	if fmt.Sprint(contents(got)) != fmt.Sprint(want) {
		t.Fatalf("got %v want %v", contents(got), want)
	}
	var last int64 = -1
	for _, msg := range got {
		seq, ok := msg.SequenceValue()
		if !ok {
			if last != -1 {
				t.Fatalf("unsequenced message after a sequenced one: %+v", got)
			}
			continue
		}
		if seq < last {
			t.Fatalf("sequence decreased: %+v", got)
		}
		last = seq
	}
}

func TestToChronologicalStoredMessagesIsBijectiveOnIdentity(t *testing.T) {
	rows := make([]types.JournalMessage, 0, 40)
	for i := 40; i > 0; i-- {
		rows = append(rows, row(fmt.Sprintf("m%d", i), int64(i%7), fmt.Sprintf("c%d", i)))
	}
	got := ToChronologicalStoredMessages(rows)
	if len(got) != len(rows) {
		t.Fatalf("expected %d messages, got %d", len(rows), len(got))
	}
	seen := map[string]bool{}
	for _, msg := range got {
		if seen[msg.ClientMessageID] {
			t.Fatalf("duplicate id %q", msg.ClientMessageID)
		}
		seen[msg.ClientMessageID] = true
	}
	for _, r := range rows {
		if !seen[r.ID] {
			t.Fatalf("dropped id %q", r.ID)
		}
	}
}

func TestToStoredMessageDefaults(t *testing.T) {
	restore := newID
	newID = func() string { return "generated-id" }
	defer func() { newID = restore }()

	cases := []struct {
		name   string
		raw    types.JournalMessage
		wantID string
	}{
		{name: "client id wins", raw: types.JournalMessage{ID: "server", ClientMessageID: "client"}, wantID: "client"},
		{name: "server id fallback", raw: types.JournalMessage{ID: "server"}, wantID: "server"},
		{name: "generated fallback", raw: types.JournalMessage{}, wantID: "generated-id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := ToStoredMessage(tc.raw)
			if msg.ClientMessageID != tc.wantID {
				t.Fatalf("id: got %q want %q", msg.ClientMessageID, tc.wantID)
			}
			if msg.Content != "" {
				t.Fatalf("expected empty content, got %q", msg.Content)
			}
			if msg.Role != types.MessageRoleAssistant {
				t.Fatalf("expected assistant role default, got %q", msg.Role)
			}
			if msg.ProcessInfos != nil || msg.Sequence != nil {
				t.Fatalf("expected no process infos or sequence: %+v", msg)
			}
		})
	}
}

func TestToStoredMessageKeepsEmptyRole(t *testing.T) {
	msg := ToStoredMessage(types.JournalMessage{ID: "x", Role: types.StringPtr("")})
	if msg.Role != "" {
		t.Fatalf("expected an explicit empty role to be kept, got %q", msg.Role)
	}

	var decoded types.JournalMessage
	if err := json.Unmarshal([]byte(`{"id":"y","role":null}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg := ToStoredMessage(decoded); msg.Role != types.MessageRoleAssistant {
		t.Fatalf("expected null role to default to assistant, got %q", msg.Role)
	}
}

func TestToStoredMessageKeepsUnknownRole(t *testing.T) {
	msg := ToStoredMessage(types.JournalMessage{ID: "x", Role: types.StringPtr("system")})
	if msg.Role != "system" {
		t.Fatalf("expected role passthrough, got %q", msg.Role)
	}
}

func TestToProcessInfosDerivesState(t *testing.T) {
	raw := json.RawMessage(`[
		{"tool_call_id":"tc-1","title":"Search","description":"web","error":"timeout","response":"ignored"},
		{"tool_call_id":"tc-2","title":"Search","description":"web","response":"3 results"},
		{"tool_call_id":"tc-3","title":"Search","description":"web","error":"","response":""},
		{"tool_call_id":"tc-4","title":"Search","description":"web","error":null}
	]`)
	infos := ToProcessInfos(raw)
	if len(infos) != 4 {
		t.Fatalf("expected 4 infos, got %d", len(infos))
	}
	if infos[0].State != types.ToolStateError || infos[0].Description != "timeout" {
		t.Fatalf("expected error state with error description: %+v", infos[0])
	}
	if infos[1].State != types.ToolStateResolved || infos[1].Response != "3 results" || infos[1].Description != "web" {
		t.Fatalf("expected resolved state: %+v", infos[1])
	}
	if infos[2].State != types.ToolStatePending {
		t.Fatalf("empty strings must not count as present: %+v", infos[2])
	}
	if infos[3].State != types.ToolStatePending {
		t.Fatalf("null error must be pending: %+v", infos[3])
	}
	for i, info := range infos {
		if info.ToolCallID != fmt.Sprintf("tc-%d", i+1) || info.ID == "" {
			t.Fatalf("unexpected identity for %d: %+v", i, info)
		}
	}
}

func TestToProcessInfosDropsInvalidEntriesOnly(t *testing.T) {
	raw := json.RawMessage(`[
		{"tool_call_id":"tc-1","title":"Search"},
		"not an object",
		null,
		{"tool_call_id":7,"title":"Search","description":"web"},
		{"tool_call_id":"tc-5","title":"Fetch","description":"page"}
	]`)
	infos := ToProcessInfos(raw)
	if len(infos) != 1 || infos[0].ToolCallID != "tc-5" {
		t.Fatalf("expected only the valid entry, got %+v", infos)
	}
}

func TestToProcessInfosUndefinedInputs(t *testing.T) {
	cases := map[string]json.RawMessage{
		"absent":      nil,
		"empty list":  json.RawMessage(`[]`),
		"object":      json.RawMessage(`{"tool_call_id":"tc"}`),
		"all invalid": json.RawMessage(`[1,2,3]`),
		"garbage":     json.RawMessage(`{{`),
	}
	for name, raw := range cases {
		if got := ToProcessInfos(raw); got != nil {
			t.Fatalf("%s: expected nil, got %+v", name, got)
		}
	}
}

func TestToStoredMessageMalformedToolCallsKeepsMessage(t *testing.T) {
	raw := types.JournalMessage{
		ID:        "m1",
		Role:      types.StringPtr("assistant"),
		Content:   types.StringPtr("answer"),
		ToolCalls: json.RawMessage(`"broken"`),
	}
	msg := ToStoredMessage(raw)
	if msg.Content != "answer" || msg.ProcessInfos != nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewClientMessageIDIsUniqueUUID(t *testing.T) {
	first := NewClientMessageID()
	second := NewClientMessageID()
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected uuid, got %q: %v", first, err)
	}
}
