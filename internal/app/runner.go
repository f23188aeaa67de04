package app

import (
	"context"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"assistant/internal/journal"
	"assistant/internal/logging"
	"assistant/internal/streamsession"
	"assistant/internal/types"
)

const defaultOpTimeout = 30 * time.Second

// Session is the orchestrator surface the UI drives.
type Session interface {
	Bootstrap(ctx context.Context) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	LoadOlder(ctx context.Context) (int, error)
	SelectReference(ctx context.Context, reference types.ConversationReference) error
	Send(ctx context.Context, text string) error
	ApplyStreamTick(ctx context.Context, max int) streamsession.Update
	ReattachStream(ctx context.Context) error
	Refresh(ctx context.Context) error
	ClearNotice()
	View() journal.View
}

type sessionOp int

const (
	opBootstrap sessionOp = iota
	opLogin
	opLogout
	opLoadOlder
	opSelect
	opSend
	opRefresh
	opReattach
)

func (op sessionOp) String() string {
	switch op {
	case opBootstrap:
		return "bootstrap"
	case opLogin:
		return "login"
	case opLogout:
		return "logout"
	case opLoadOlder:
		return "load_older"
	case opSelect:
		return "select"
	case opSend:
		return "send"
	case opRefresh:
		return "refresh"
	case opReattach:
		return "reattach"
	default:
		return "unknown"
	}
}

type sessionResultMsg struct {
	op    sessionOp
	view  journal.View
	added int
	err   error
}

// sessionRunner serializes orchestrator calls. Blocking operations run inside
// tea.Cmds; the UI goroutine only ever uses TryLock so it never waits on I/O.
type sessionRunner struct {
	mu      sync.Mutex
	session Session
	ctx     context.Context
	timeout time.Duration
	logger  logging.Logger
}

func newSessionRunner(ctx context.Context, session Session, logger logging.Logger) *sessionRunner {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &sessionRunner{
		session: session,
		ctx:     ctx,
		timeout: defaultOpTimeout,
		logger:  logger,
	}
}

func (r *sessionRunner) run(op sessionOp, fn func(ctx context.Context, s Session) (int, error)) tea.Cmd {
	return func() tea.Msg {
		r.mu.Lock()
		defer r.mu.Unlock()
		ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
		defer cancel()
		start := time.Now()
		added, err := fn(ctx, r.session)
		if err != nil {
			r.logger.Warn("session_op_failed",
				logging.F("op", op.String()),
				logging.F("error", err),
				logging.F("duration", time.Since(start)),
			)
		} else if r.logger.Enabled(logging.Debug) {
			r.logger.Debug("session_op", logging.F("op", op.String()), logging.F("duration", time.Since(start)))
		}
		return sessionResultMsg{op: op, view: r.session.View(), added: added, err: err}
	}
}

func (r *sessionRunner) bootstrap() tea.Cmd {
	return r.run(opBootstrap, func(ctx context.Context, s Session) (int, error) {
		return 0, s.Bootstrap(ctx)
	})
}

func (r *sessionRunner) login(email, password string) tea.Cmd {
	return r.run(opLogin, func(ctx context.Context, s Session) (int, error) {
		return 0, s.Login(ctx, email, password)
	})
}

func (r *sessionRunner) logout() tea.Cmd {
	return r.run(opLogout, func(ctx context.Context, s Session) (int, error) {
		return 0, s.Logout(ctx)
	})
}

func (r *sessionRunner) loadOlder() tea.Cmd {
	return r.run(opLoadOlder, func(ctx context.Context, s Session) (int, error) {
		return s.LoadOlder(ctx)
	})
}

func (r *sessionRunner) selectReference(reference types.ConversationReference) tea.Cmd {
	return r.run(opSelect, func(ctx context.Context, s Session) (int, error) {
		return 0, s.SelectReference(ctx, reference)
	})
}

func (r *sessionRunner) send(text string) tea.Cmd {
	return r.run(opSend, func(ctx context.Context, s Session) (int, error) {
		return 0, s.Send(ctx, text)
	})
}

func (r *sessionRunner) refresh() tea.Cmd {
	return r.run(opRefresh, func(ctx context.Context, s Session) (int, error) {
		return 0, s.Refresh(ctx)
	})
}

func (r *sessionRunner) reattach() tea.Cmd {
	return r.run(opReattach, func(ctx context.Context, s Session) (int, error) {
		return 0, s.ReattachStream(ctx)
	})
}

// drain folds queued stream events into the session without blocking. ok is
// false when an operation holds the session or nothing changed.
func (r *sessionRunner) drain(max int) (streamsession.Update, journal.View, bool) {
	if !r.mu.TryLock() {
		return streamsession.Update{}, journal.View{}, false
	}
	defer r.mu.Unlock()
	update := r.session.ApplyStreamTick(r.ctx, max)
	if !update.Changed && !update.Finished && !update.Closed {
		return update, journal.View{}, false
	}
	return update, r.session.View(), true
}

// clearNotice drops the notice when the session is free; a busy session
// keeps it until the next result.
func (r *sessionRunner) clearNotice() bool {
	if !r.mu.TryLock() {
		return false
	}
	defer r.mu.Unlock()
	r.session.ClearNotice()
	return true
}
