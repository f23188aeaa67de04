package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assistant/internal/types"
)

func writeFrame(w http.ResponseWriter, event, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestOpenStreamParsesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream/s1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeFrame(w, "tool_call", `{"tool_call_id":"tc-1","title":"Search","description":"Searching the web"}`)
		_, _ = w.Write([]byte(": keep-alive\n\n"))
		writeFrame(w, "message_chunk", `{"text":"Hello"}`)
		writeFrame(w, "mystery", `{"text":"ignored"}`)
		writeFrame(w, "tool_response", `{"tool_call_id":"tc-1","message":"Found 1 source"}`)
		writeFrame(w, "message_chunk", `not json`)
		writeFrame(w, "done", `{"reason":"complete"}`)
	}))
	defer server.Close()

	client, err := NewWithBaseURL(server.URL)
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch, stop, err := client.OpenStream(ctx, "s1")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	defer stop()

	var events []types.StreamEvent
	for event := range ch {
		events = append(events, event)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[0].Type != types.StreamEventToolCall || events[0].ToolCallID != "tc-1" || events[0].Title != "Search" {
		t.Fatalf("unexpected tool call: %+v", events[0])
	}
	if events[1].Type != types.StreamEventMessageChunk || events[1].Text != "Hello" {
		t.Fatalf("unexpected chunk: %+v", events[1])
	}
	if events[2].Type != types.StreamEventToolResponse || events[2].Message != "Found 1 source" {
		t.Fatalf("unexpected tool response: %+v", events[2])
	}
	if events[3].Type != types.StreamEventDone || events[3].Reason != "complete" || !events[3].Terminal() {
		t.Fatalf("unexpected done: %+v", events[3])
	}
}

func TestOpenStreamReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Unknown stream id"}`))
	}))
	defer server.Close()

	client, err := NewWithBaseURL(server.URL)
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}
	_, _, err = client.OpenStream(context.Background(), "missing")
	apiErr := asAPIError(err)
	if apiErr == nil || apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Unknown stream id" {
		t.Fatalf("expected api error, got %v", err)
	}
	if !apiErr.Gone() {
		t.Fatalf("expected unknown stream to read as gone")
	}
	if (&APIError{StatusCode: http.StatusBadGateway}).Gone() {
		t.Fatalf("a bad gateway is not a gone stream")
	}
}

func TestOpenStreamCancelClosesChannel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeFrame(w, "message_chunk", `{"text":"partial"}`)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	client, err := NewWithBaseURL(server.URL)
	if err != nil {
		t.Fatalf("NewWithBaseURL: %v", err)
	}
	ch, stop, err := client.OpenStream(context.Background(), "s1")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	select {
	case event := <-ch:
		if event.Text != "partial" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for first event")
	}
	stop()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for channel close")
	}
}

func TestParseStreamEventRejectsToolEventsWithoutID(t *testing.T) {
	if _, ok := parseStreamEvent("tool_call", `{"title":"x","description":"y"}`); ok {
		t.Fatalf("expected tool call without id to be skipped")
	}
	event, ok := parseStreamEvent("error", `{"message":"Assistant stream failed"}`)
	if !ok || event.Message != "Assistant stream failed" || event.ToolCallID != "" {
		t.Fatalf("unexpected error event: %+v ok=%v", event, ok)
	}
}
