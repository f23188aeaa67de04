package app

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"

	"assistant/internal/journal"
	"assistant/internal/streamsession"
	"assistant/internal/types"
)

type fakeSession struct {
	mu       sync.Mutex
	view     journal.View
	updates  []streamsession.Update
	views    []journal.View
	sent     []string
	selected []string
	calls    []string
	sendErr  error
	loginErr error
	added    int
}

func newFakeSession(view journal.View) *fakeSession {
	return &fakeSession{view: view}
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeSession) Bootstrap(context.Context) error {
	f.record("bootstrap")
	return nil
}

func (f *fakeSession) Login(_ context.Context, email, _ string) error {
	f.record("login")
	if f.loginErr != nil {
		return f.loginErr
	}
	f.view.LoggedIn = true
	f.view.User = types.User{Email: email}
	return nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.record("logout")
	f.view = journal.View{}
	return nil
}

func (f *fakeSession) LoadOlder(context.Context) (int, error) {
	f.record("load_older")
	return f.added, nil
}

func (f *fakeSession) SelectReference(_ context.Context, reference types.ConversationReference) error {
	f.record("select")
	f.selected = append(f.selected, reference)
	f.view.Reference = reference
	f.view.CanChat = reference == f.view.Today
	return nil
}

func (f *fakeSession) Send(_ context.Context, text string) error {
	f.record("send")
	f.sent = append(f.sent, text)
	return f.sendErr
}

// ApplyStreamTick replays queued updates, switching to the paired view.
func (f *fakeSession) ApplyStreamTick(context.Context, int) streamsession.Update {
	if len(f.updates) == 0 {
		return streamsession.Update{}
	}
	update := f.updates[0]
	f.updates = f.updates[1:]
	if len(f.views) > 0 {
		f.view = f.views[0]
		f.views = f.views[1:]
	}
	return update
}

func (f *fakeSession) ReattachStream(context.Context) error {
	f.record("reattach")
	return nil
}

func (f *fakeSession) Refresh(context.Context) error {
	f.record("refresh")
	return nil
}

func (f *fakeSession) ClearNotice() {
	f.view.Notice = ""
}

func (f *fakeSession) View() journal.View {
	return f.view
}

func (f *fakeSession) queue(update streamsession.Update, view journal.View) {
	f.updates = append(f.updates, update)
	f.views = append(f.views, view)
}

// collectMsgs runs cmd and every command nested in a batch.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sessionResults(msgs []tea.Msg) []sessionResultMsg {
	var out []sessionResultMsg
	for _, msg := range msgs {
		if res, ok := msg.(sessionResultMsg); ok {
			out = append(out, res)
		}
	}
	return out
}
