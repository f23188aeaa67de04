package app

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	xansi "github.com/charmbracelet/x/ansi"

	"assistant/internal/config"
	"assistant/internal/journal"
	"assistant/internal/streamsession"
	"assistant/internal/types"
)

func todayView() journal.View {
	return journal.View{
		LoggedIn:  true,
		User:      types.User{Email: "ada@example.com"},
		Reference: "2026/02/19",
		Today:     "2026/02/19",
		Journals: []types.JournalEntry{
			{Reference: "2026/02/19", MessageCount: 2},
			{Reference: "2026/02/18", MessageCount: 7},
		},
		Messages: []types.Message{
			{Role: types.MessageRoleUser, Content: "hello", ClientMessageID: "u1", Sequence: types.Int64Ptr(1)},
			{Role: types.MessageRoleAssistant, Content: "hi there", ClientMessageID: "a1", Sequence: types.Int64Ptr(2)},
		},
		CanChat: true,
	}
}

func newTestModel(t *testing.T, session *fakeSession) *Model {
	t.Helper()
	m := NewModel(session, Options{UI: config.DefaultConfig().UI})
	m.resize(100, 30)
	return &m
}

func bootstrapped(t *testing.T, session *fakeSession) *Model {
	t.Helper()
	m := newTestModel(t, session)
	m.inflight++
	res := m.runner.bootstrap()().(sessionResultMsg)
	m.Update(res)
	return m
}

func plainText(s string) string {
	return xansi.Strip(s)
}

func keyPress(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	}
	if strings.HasPrefix(s, "ctrl+") {
		return tea.KeyPressMsg{Code: rune(s[len("ctrl+")]), Mod: tea.ModCtrl}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(keyPress(string(r)))
	}
}

func TestBootstrapLoggedOutShowsLogin(t *testing.T) {
	session := newFakeSession(journal.View{})
	m := bootstrapped(t, session)
	if m.mode != uiModeLogin {
		t.Fatalf("expected login mode, got %v", m.mode)
	}
	if session.callCount("bootstrap") != 1 {
		t.Fatalf("expected one bootstrap call")
	}
}

func TestBootstrapLoggedInShowsTranscript(t *testing.T) {
	m := bootstrapped(t, newFakeSession(todayView()))
	if m.mode != uiModeChat {
		t.Fatalf("expected chat mode, got %v", m.mode)
	}
	content := plainText(m.viewport.GetContent())
	if !strings.Contains(content, "hello") || !strings.Contains(content, "hi there") {
		t.Fatalf("expected transcript in viewport, got %q", content)
	}
	if !strings.Contains(plainText(m.renderHeader()), "2026/02/19") {
		t.Fatalf("expected reference in header, got %q", m.renderHeader())
	}
}

func TestLoginSubmitsCredentials(t *testing.T) {
	session := newFakeSession(journal.View{})
	m := bootstrapped(t, session)
	typeText(m, "ada@example.com")
	m.Update(keyPress("enter"))
	if m.login.focus != loginFieldPassword {
		t.Fatalf("expected enter on email to move to password")
	}
	typeText(m, "secret")
	_, cmd := m.Update(keyPress("enter"))
	results := sessionResults(collectMsgs(cmd))
	if len(results) != 1 || results[0].op != opLogin {
		t.Fatalf("expected one login result, got %#v", results)
	}
	m.Update(results[0])
	if m.mode != uiModeChat {
		t.Fatalf("expected chat mode after login, got %v", m.mode)
	}
}

func TestLoginFailureKeepsFormWithError(t *testing.T) {
	session := newFakeSession(journal.View{})
	session.loginErr = errors.New("invalid credentials")
	m := bootstrapped(t, session)
	typeText(m, "ada@example.com")
	m.Update(keyPress("enter"))
	typeText(m, "wrong")
	_, cmd := m.Update(keyPress("enter"))
	for _, res := range sessionResults(collectMsgs(cmd)) {
		m.Update(res)
	}
	if m.mode != uiModeLogin {
		t.Fatalf("expected to stay on login, got %v", m.mode)
	}
	if !strings.Contains(plainText(m.login.View()), "invalid credentials") {
		t.Fatalf("expected error in login form")
	}
}

func TestEnterSendsComposedText(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)
	typeText(m, "dear diary")
	_, cmd := m.Update(keyPress("enter"))
	results := sessionResults(collectMsgs(cmd))
	if len(results) != 1 || results[0].op != opSend {
		t.Fatalf("expected send result, got %#v", results)
	}
	if len(session.sent) != 1 || session.sent[0] != "dear diary" {
		t.Fatalf("unexpected sent texts: %#v", session.sent)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected compose line to reset, got %q", m.input.Value())
	}
	if !m.scroll.forceCatchup {
		t.Fatalf("expected send to request catchup")
	}
}

func TestEnterOnPastJournalIsRejected(t *testing.T) {
	view := todayView()
	view.Reference = "2026/02/18"
	view.CanChat = false
	view.ReadOnlyReason = journal.ReadOnlyReason
	session := newFakeSession(view)
	m := bootstrapped(t, session)
	typeText(m, "hello")
	_, cmd := m.Update(keyPress("enter"))
	if cmd != nil {
		t.Fatalf("expected no command for read-only journal")
	}
	if session.callCount("send") != 0 {
		t.Fatalf("expected no send call")
	}
	if m.status != journal.ReadOnlyReason {
		t.Fatalf("expected read-only status, got %q", m.status)
	}
	if !strings.Contains(plainText(m.renderChat()), journal.ReadOnlyReason) {
		t.Fatalf("expected read-only reason in place of compose line")
	}
}

func TestSendFailureShowsConnectivityNotice(t *testing.T) {
	session := newFakeSession(todayView())
	session.sendErr = &streamsession.SendFailure{Err: errors.New("connection refused")}
	m := bootstrapped(t, session)
	typeText(m, "hi")
	_, cmd := m.Update(keyPress("enter"))
	for _, res := range sessionResults(collectMsgs(cmd)) {
		m.Update(res)
	}
	if m.status != journal.ConnectivityMsg || !m.statusErr {
		t.Fatalf("expected connectivity error status, got %q", m.status)
	}
}

func TestTickShowsThinkingUntilFirstChunk(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)

	thinking := todayView()
	thinking.Streaming = &types.Message{Role: types.MessageRoleAssistant, ClientMessageID: "stream-1"}
	thinking.Thinking = true
	session.queue(streamsession.Update{Changed: true}, thinking)

	m.Update(tickMsg(time.Now()))
	if !strings.Contains(plainText(m.viewport.GetContent()), thinkingLabel) {
		t.Fatalf("expected thinking placeholder, got %q", plainText(m.viewport.GetContent()))
	}

	chunk := todayView()
	chunk.Streaming = &types.Message{Role: types.MessageRoleAssistant, ClientMessageID: "stream-1", Content: "Good morning"}
	session.queue(streamsession.Update{Events: 1, Changed: true}, chunk)
	m.Update(tickMsg(time.Now().Add(16 * time.Millisecond)))
	content := plainText(m.viewport.GetContent())
	if strings.Contains(content, thinkingLabel) {
		t.Fatalf("expected placeholder to disappear after first chunk")
	}
	if !strings.Contains(content, "Good morning") {
		t.Fatalf("expected streamed text, got %q", content)
	}
}

func TestFinishedTurnRefreshesListing(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)

	done := todayView()
	done.Messages = append(done.Messages, types.Message{Role: types.MessageRoleAssistant, Content: "done", ClientMessageID: "stream-1"})
	session.queue(streamsession.Update{Changed: true, Finished: true}, done)

	_, cmd := m.Update(tickMsg(time.Now()))
	if m.inflight != 1 {
		t.Fatalf("expected refresh to be in flight, got %d", m.inflight)
	}
	results := sessionResults(collectMsgs(cmd))
	if len(results) != 1 || results[0].op != opRefresh {
		t.Fatalf("expected refresh result, got %#v", results)
	}
}

func TestClosedStreamSurfacesReconnectHint(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)
	session.queue(streamsession.Update{Closed: true}, todayView())
	m.Update(tickMsg(time.Now()))
	if !m.statusErr || !strings.Contains(m.status, "ctrl+r") {
		t.Fatalf("expected reconnect hint, got %q", m.status)
	}

	_, cmd := m.Update(keyPress("ctrl+r"))
	msgs := collectMsgs(cmd)
	if len(sessionResults(msgs)) != 2 {
		t.Fatalf("expected reattach and refresh results, got %#v", msgs)
	}
	if session.callCount("reattach") != 1 || session.callCount("refresh") != 1 {
		t.Fatalf("unexpected calls: %#v", session.calls)
	}
}

func TestPickerSelectsJournal(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)

	m.Update(keyPress("ctrl+o"))
	if m.mode != uiModePicker {
		t.Fatalf("expected picker mode, got %v", m.mode)
	}
	m.Update(keyPress("down"))
	_, cmd := m.Update(keyPress("enter"))
	if m.mode != uiModeChat {
		t.Fatalf("expected chat mode after selection")
	}
	for _, res := range sessionResults(collectMsgs(cmd)) {
		m.Update(res)
	}
	if len(session.selected) != 1 || session.selected[0] != "2026/02/18" {
		t.Fatalf("unexpected selection: %#v", session.selected)
	}
	if m.view.CanChat {
		t.Fatalf("expected past journal to be read-only")
	}
}

func TestLoadOlderKeepsReadingPosition(t *testing.T) {
	view := todayView()
	view.HasOlder = true
	session := newFakeSession(view)
	m := bootstrapped(t, session)
	m.resize(100, 8)

	older := view
	var messages []types.Message
	for i := 0; i < 10; i++ {
		messages = append(messages, types.Message{
			Role:            types.MessageRoleUser,
			Content:         fmt.Sprintf("older %d", i),
			ClientMessageID: fmt.Sprintf("o%d", i),
			Sequence:        types.Int64Ptr(int64(i - 20)),
		})
	}
	older.Messages = append(messages, view.Messages...)
	older.HasOlder = false
	session.added = 10

	m.scroll.jumpToBottom(&m.viewport)
	before := m.viewport.YOffset()
	_, cmd := m.Update(keyPress("ctrl+l"))
	res := sessionResults(collectMsgs(cmd))
	if len(res) != 1 || res[0].op != opLoadOlder {
		t.Fatalf("expected load older result, got %#v", res)
	}
	res[0].view = older
	m.Update(res[0])
	if m.viewport.YOffset() <= before {
		t.Fatalf("expected offset to grow after prepend, before=%d after=%d", before, m.viewport.YOffset())
	}
}

func TestWheelUpSuspendsFollowOnlyWhileStreaming(t *testing.T) {
	view := todayView()
	for i := 0; i < 40; i++ {
		view.Messages = append(view.Messages, types.Message{
			Role:            types.MessageRoleUser,
			Content:         fmt.Sprintf("note %d", i),
			ClientMessageID: fmt.Sprintf("n%d", i),
			Sequence:        types.Int64Ptr(int64(i + 3)),
		})
	}
	session := newFakeSession(view)
	m := bootstrapped(t, session)
	m.resize(100, 8)
	m.scroll.jumpToBottom(&m.viewport)

	m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if m.scroll.suspended() {
		t.Fatalf("expected no suspension between turns")
	}

	m.scroll.jumpToBottom(&m.viewport)
	m.view.Streaming = &types.Message{Role: types.MessageRoleAssistant, ClientMessageID: "stream-1"}
	m.Update(tea.MouseWheelMsg{Button: tea.MouseWheelUp})
	if !m.scroll.suspended() {
		t.Fatalf("expected wheel up to suspend a streaming follow")
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	session := newFakeSession(todayView())
	m := bootstrapped(t, session)
	_, cmd := m.Update(keyPress("ctrl+x"))
	for _, res := range sessionResults(collectMsgs(cmd)) {
		m.Update(res)
	}
	if m.mode != uiModeLogin {
		t.Fatalf("expected login mode after logout, got %v", m.mode)
	}
	if m.status != "signed out" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestCopyWithoutAssistantReply(t *testing.T) {
	view := todayView()
	view.Messages = view.Messages[:1]
	m := bootstrapped(t, newFakeSession(view))
	_, cmd := m.Update(keyPress("ctrl+y"))
	if cmd != nil {
		t.Fatalf("expected no copy command")
	}
	if m.status != "nothing to copy" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestCopyLastAssistantReply(t *testing.T) {
	var copied string
	stubClipboard(t,
		func(text string) error {
			copied = text
			return nil
		},
		func(string) error { return nil },
	)
	m := bootstrapped(t, newFakeSession(todayView()))
	_, cmd := m.Update(keyPress("ctrl+y"))
	for _, msg := range collectMsgs(cmd) {
		m.Update(msg)
	}
	if copied != "hi there" {
		t.Fatalf("expected last assistant reply to be copied, got %q", copied)
	}
	if !strings.HasPrefix(m.status, "copied reply") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestViewUsesAltScreenAndMouse(t *testing.T) {
	m := bootstrapped(t, newFakeSession(todayView()))
	v := m.View()
	if !v.AltScreen {
		t.Fatalf("expected alt screen")
	}
	if v.MouseMode != tea.MouseModeCellMotion {
		t.Fatalf("expected cell motion mouse mode")
	}
}

func TestStatusExpires(t *testing.T) {
	m := bootstrapped(t, newFakeSession(todayView()))
	base := time.Now()
	m.now = func() time.Time { return base }
	m.setStatus("copied reply (system)")
	m.now = func() time.Time { return base.Add(statusTTL + time.Second) }
	m.Update(tickMsg(base))
	if m.status != "" {
		t.Fatalf("expected status to expire, got %q", m.status)
	}
}
