package app

import (
	"context"
	"testing"

	"assistant/internal/streamsession"
)

func TestRunnerDrainSkipsWhileBusy(t *testing.T) {
	session := newFakeSession(todayView())
	session.queue(streamsession.Update{Changed: true}, todayView())
	r := newSessionRunner(context.Background(), session, nil)

	r.mu.Lock()
	if _, _, ok := r.drain(64); ok {
		r.mu.Unlock()
		t.Fatalf("expected drain to skip while an operation holds the session")
	}
	r.mu.Unlock()

	if _, _, ok := r.drain(64); !ok {
		t.Fatalf("expected drain to apply queued update")
	}
	if _, _, ok := r.drain(64); ok {
		t.Fatalf("expected no view when nothing changed")
	}
}

func TestRunnerResultCarriesView(t *testing.T) {
	session := newFakeSession(todayView())
	r := newSessionRunner(context.Background(), session, nil)
	msg := r.selectReference("2026/02/18")().(sessionResultMsg)
	if msg.op != opSelect || msg.err != nil {
		t.Fatalf("unexpected result %#v", msg)
	}
	if msg.view.Reference != "2026/02/18" {
		t.Fatalf("expected view after operation, got %q", msg.view.Reference)
	}
}

func TestSessionOpNames(t *testing.T) {
	names := map[sessionOp]string{
		opBootstrap: "bootstrap",
		opLoadOlder: "load_older",
		opReattach:  "reattach",
	}
	for op, want := range names {
		if got := op.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
