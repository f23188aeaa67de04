package streamsession

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"assistant/internal/logging"
	"assistant/internal/types"
)

type Sender interface {
	SendMessage(ctx context.Context, reference, text, clientMessageID string) (string, error)
}

type Transport interface {
	OpenStream(ctx context.Context, streamID string) (<-chan types.StreamEvent, func(), error)
}

type PendingStore interface {
	LoadPendingStream(ctx context.Context) (*types.StreamSession, error)
	SavePendingStream(ctx context.Context, session types.StreamSession) error
	ClearPendingStream(ctx context.Context) error
}

var (
	ErrStreamInProgress = errors.New("an assistant reply is still streaming")
	ErrNoPendingStream  = errors.New("no pending stream")
	// ErrStreamGone is returned by Attach when the backend no longer knows
	// the stream. The marker has been cleared by then.
	ErrStreamGone = errors.New("stream no longer exists")
)

// streamGone matches transport errors that carry a Gone method, such as
// *client.APIError.
func streamGone(err error) bool {
	var gone interface{ Gone() bool }
	return errors.As(err, &gone) && gone.Gone()
}

// SendFailure wraps an error raised before any stream existed. No pending
// marker is left behind when Start returns one.
type SendFailure struct {
	Err error
}

func (e *SendFailure) Error() string {
	if e == nil || e.Err == nil {
		return "send failed"
	}
	return "send failed: " + e.Err.Error()
}

func (e *SendFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Update summarizes one Drain call.
type Update struct {
	Events   int
	Changed  bool
	Finished bool
	// Failed is set when the backend reported the whole turn as failed.
	Failed bool
	Error  string
	// Closed is set when the transport ended without a terminal event.
	Closed bool
	// Final holds the completed assistant message when Finished is set.
	Final *types.Message
}

// Manager owns the lifecycle of the single in-flight assistant turn: the
// persisted pending marker, the live channel and the message being built.
// It is not safe for concurrent use.
type Manager struct {
	sender    Sender
	transport Transport
	store     PendingStore
	logger    logging.Logger

	current types.ConversationReference
	pending *types.StreamSession
	message types.Message
	chunked bool

	events <-chan types.StreamEvent
	cancel func()
}

func New(sender Sender, transport Transport, store PendingStore, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Manager{
		sender:    sender,
		transport: transport,
		store:     store,
		logger:    logger.With(logging.F("component", "stream_session")),
	}
}

// Start sends text on reference and records the resulting stream as pending.
// It attaches right away when reference is the current one.
func (m *Manager) Start(ctx context.Context, reference types.ConversationReference, text, clientMessageID string) (types.StreamSession, error) {
	if m.pending != nil {
		return types.StreamSession{}, ErrStreamInProgress
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return types.StreamSession{}, errors.New("reference is required")
	}
	streamID, err := m.sender.SendMessage(ctx, reference, text, clientMessageID)
	if err != nil {
		m.logger.Warn("send_failed", logging.F("reference", reference), logging.F("error", err))
		return types.StreamSession{}, &SendFailure{Err: err}
	}
	session := types.StreamSession{StreamID: streamID, Reference: reference}
	m.begin(ctx, session)
	m.logger.Info("stream_started", logging.F("stream_id", streamID), logging.F("reference", reference))
	if reference == m.current {
		if err := m.Attach(ctx); err != nil {
			return session, err
		}
	}
	return session, nil
}

func (m *Manager) begin(ctx context.Context, session types.StreamSession) {
	copied := session
	m.pending = &copied
	m.message = types.Message{
		Role:            types.MessageRoleAssistant,
		ClientMessageID: assistantMessageID(session.StreamID),
	}
	m.chunked = false
	if m.store == nil {
		return
	}
	if err := m.store.SavePendingStream(ctx, session); err != nil {
		m.logger.Warn("pending_save_failed", logging.F("stream_id", session.StreamID), logging.F("error", err))
	}
}

// SetCurrentReference records navigation. Leaving the stream's journal
// detaches without losing the marker; coming back re-attaches to the same
// stream and keeps building the same message.
func (m *Manager) SetCurrentReference(ctx context.Context, reference types.ConversationReference) error {
	m.current = strings.TrimSpace(reference)
	if m.pending == nil {
		return nil
	}
	if m.pending.Reference != m.current {
		if m.Attached() {
			m.logger.Debug("stream_detached_on_navigation",
				logging.F("stream_id", m.pending.StreamID),
				logging.F("reference", m.current),
			)
		}
		m.Detach()
		return nil
	}
	return m.Attach(ctx)
}

func (m *Manager) CurrentReference() types.ConversationReference {
	return m.current
}

// Resume reloads the marker left by a previous run. Absent or malformed
// markers resume nothing.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	if m.pending != nil {
		if m.pending.Reference == m.current {
			return true, m.Attach(ctx)
		}
		return true, nil
	}
	if m.store == nil {
		return false, nil
	}
	marker, err := m.store.LoadPendingStream(ctx)
	if err != nil {
		return false, fmt.Errorf("load pending stream: %w", err)
	}
	if marker == nil || !marker.Valid() {
		return false, nil
	}
	copied := *marker
	m.pending = &copied
	m.message = types.Message{
		Role:            types.MessageRoleAssistant,
		ClientMessageID: assistantMessageID(marker.StreamID),
	}
	m.chunked = false
	m.logger.Info("stream_resumed", logging.F("stream_id", marker.StreamID), logging.F("reference", marker.Reference))
	if marker.Reference == m.current {
		return true, m.Attach(ctx)
	}
	return true, nil
}

// Attach opens the live channel for the pending stream. When the backend
// reports the stream gone the turn is cleared and ErrStreamGone is
// returned. Other transport errors keep the marker for a later attempt.
func (m *Manager) Attach(ctx context.Context) error {
	if m.pending == nil {
		return ErrNoPendingStream
	}
	if m.events != nil {
		return nil
	}
	// the channel outlives the caller's context and ends on Detach
	events, cancel, err := m.transport.OpenStream(context.WithoutCancel(ctx), m.pending.StreamID)
	if err != nil {
		streamID := m.pending.StreamID
		if streamGone(err) {
			m.logger.Info("stream_gone", logging.F("stream_id", streamID), logging.F("error", err))
			if clearErr := m.Clear(ctx); clearErr != nil {
				m.logger.Warn("pending_clear_failed", logging.F("stream_id", streamID), logging.F("error", clearErr))
			}
			return fmt.Errorf("attach stream %s: %w", streamID, ErrStreamGone)
		}
		m.logger.Warn("stream_attach_failed", logging.F("stream_id", streamID), logging.F("error", err))
		return fmt.Errorf("attach stream %s: %w", streamID, err)
	}
	m.events = events
	m.cancel = cancel
	m.logger.Debug("stream_attached", logging.F("stream_id", m.pending.StreamID))
	return nil
}

func (m *Manager) Detach() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.events = nil
}

// Clear abandons the pending turn and removes its marker.
func (m *Manager) Clear(ctx context.Context) error {
	m.Detach()
	m.pending = nil
	m.message = types.Message{}
	m.chunked = false
	if m.store == nil {
		return nil
	}
	return m.store.ClearPendingStream(ctx)
}

func (m *Manager) Pending() (types.StreamSession, bool) {
	if m.pending == nil {
		return types.StreamSession{}, false
	}
	return *m.pending, true
}

func (m *Manager) Attached() bool {
	return m.events != nil
}

// Visible reports whether the in-flight turn belongs to the current journal.
func (m *Manager) Visible() bool {
	return m.pending != nil && m.pending.Reference == m.current
}

// AwaitingFirstChunk reports whether the visible turn has produced no text
// yet.
func (m *Manager) AwaitingFirstChunk() bool {
	return m.Visible() && !m.chunked
}

// Message returns a copy of the assistant message being streamed.
func (m *Manager) Message() (types.Message, bool) {
	if m.pending == nil {
		return types.Message{}, false
	}
	return types.CloneMessage(m.message), true
}

// Drain applies up to max queued events without blocking.
func (m *Manager) Drain(ctx context.Context, max int) Update {
	var update Update
	if m.events == nil {
		return update
	}
	if max <= 0 {
		max = 1
	}
	for update.Events < max {
		select {
		case event, ok := <-m.events:
			if !ok {
				m.logger.Info("stream_closed_without_terminal", logging.F("stream_id", m.streamID()))
				m.Detach()
				update.Closed = true
				return update
			}
			update.Events++
			m.apply(ctx, event, &update)
			if update.Finished {
				return update
			}
		default:
			return update
		}
	}
	return update
}

// Apply folds a single event into the in-flight message.
func (m *Manager) Apply(ctx context.Context, event types.StreamEvent) Update {
	update := Update{Events: 1}
	m.apply(ctx, event, &update)
	return update
}

func (m *Manager) apply(ctx context.Context, event types.StreamEvent, update *Update) {
	if m.pending == nil {
		return
	}
	switch event.Type {
	case types.StreamEventMessageChunk:
		if event.Text == "" {
			return
		}
		m.message.Content += event.Text
		m.chunked = true
		update.Changed = true
	case types.StreamEventToolCall:
		if event.ToolCallID == "" || m.toolIndex(event.ToolCallID) >= 0 {
			return
		}
		m.message.ProcessInfos = append(m.message.ProcessInfos, types.ToolStatus{
			ID:          event.ToolCallID,
			ToolCallID:  event.ToolCallID,
			Title:       event.Title,
			Description: event.Description,
			State:       types.ToolStatePending,
		})
		update.Changed = true
	case types.StreamEventToolResponse:
		idx := m.toolIndex(event.ToolCallID)
		if idx < 0 {
			return
		}
		m.message.ProcessInfos[idx].State = types.ToolStateResolved
		m.message.ProcessInfos[idx].Response = event.Message
		update.Changed = true
	case types.StreamEventError:
		if idx := m.toolIndex(event.ToolCallID); idx >= 0 {
			m.message.ProcessInfos[idx].State = types.ToolStateError
			if event.Message != "" {
				m.message.ProcessInfos[idx].Description = event.Message
			}
			update.Changed = true
			return
		}
		for i := range m.message.ProcessInfos {
			if m.message.ProcessInfos[i].State == types.ToolStatePending {
				m.message.ProcessInfos[i].State = types.ToolStateInterrupted
			}
		}
		if m.message.Content == "" && event.Message != "" {
			m.message.Content = event.Message
		}
		m.logger.Warn("stream_failed", logging.F("stream_id", m.streamID()), logging.F("message", event.Message))
		update.Failed = true
		update.Error = event.Message
		m.finish(ctx, update)
	case types.StreamEventDone:
		m.logger.Info("stream_done", logging.F("stream_id", m.streamID()), logging.F("reason", event.Reason))
		m.finish(ctx, update)
	}
}

func (m *Manager) finish(ctx context.Context, update *Update) {
	final := types.CloneMessage(m.message)
	update.Final = &final
	update.Finished = true
	update.Changed = true
	if err := m.Clear(ctx); err != nil {
		m.logger.Warn("pending_clear_failed", logging.F("error", err))
	}
}

func (m *Manager) toolIndex(toolCallID string) int {
	if toolCallID == "" {
		return -1
	}
	for i, info := range m.message.ProcessInfos {
		if info.ToolCallID == toolCallID {
			return i
		}
	}
	return -1
}

func (m *Manager) streamID() string {
	if m.pending == nil {
		return ""
	}
	return m.pending.StreamID
}

func assistantMessageID(streamID string) string {
	return "stream-" + streamID
}
