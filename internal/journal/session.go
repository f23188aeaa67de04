package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"assistant/internal/logging"
	"assistant/internal/reconcile"
	"assistant/internal/store"
	"assistant/internal/streamsession"
	"assistant/internal/types"
)

const (
	DefaultPageSize = 50

	ReadOnlyReason  = "You can not chat with past journals."
	SendFallback    = "I could not reach the assistant service. Please try again."
	ConnectivityMsg = "The assistant service is unreachable."
)

var (
	ErrLoggedOut = errors.New("not logged in")
	ErrReadOnly  = errors.New(ReadOnlyReason)
	ErrEmptyText = errors.New("message is empty")
)

// API is the slice of the backend the session needs.
type API interface {
	CurrentUser(ctx context.Context) (*types.User, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	ListJournals(ctx context.Context) ([]types.JournalEntry, error)
	Today(ctx context.Context, create bool) (*types.JournalEntry, error)
	Summary(ctx context.Context, reference string) (*types.JournalEntry, error)
	ListMessages(ctx context.Context, reference string, cursor *int64, limit int) ([]types.JournalMessage, error)
	streamsession.Sender
	streamsession.Transport
}

type Options struct {
	PageSize int
	Logger   logging.Logger
}

// Session keeps the visible journal, its message window and the live turn
// consistent with the backend and the local snapshot. It is not safe for
// concurrent use.
type Session struct {
	api      API
	store    store.SnapshotStore
	streams  *streamsession.Manager
	logger   logging.Logger
	pageSize int

	user        *types.User
	reference   types.ConversationReference
	today       types.ConversationReference
	journals    []types.JournalEntry
	messages    []types.Message
	serverCount int
	notice      string
}

func New(api API, snapshots store.SnapshotStore, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{
		api:      api,
		store:    snapshots,
		streams:  streamsession.New(api, api, snapshots, logger),
		logger:   logger.With(logging.F("component", "journal_session")),
		pageSize: pageSize,
	}
}

// Bootstrap restores the cached window, reconciles it with the backend and
// resumes a turn that was still streaming when the client last exited.
func (s *Session) Bootstrap(ctx context.Context) error {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("load current user: %w", err)
	}
	if user == nil {
		s.logger.Info("bootstrap_logged_out")
		return s.resetLocal(ctx)
	}
	s.user = user

	snapshot := s.loadSnapshot(ctx)
	if snapshot != nil && snapshot.User.Email != "" && snapshot.User.Email != user.Email {
		s.logger.Info("snapshot_user_mismatch")
		if err := s.store.ClearSnapshot(ctx); err != nil {
			s.logger.Warn("snapshot_clear_failed", logging.F("error", err))
		}
		snapshot = nil
	}

	if snapshot != nil && strings.TrimSpace(snapshot.CurrentReference) != "" {
		if err := s.hydrate(ctx, snapshot); err != nil {
			return err
		}
		if _, err := s.refreshListing(ctx); err != nil {
			return err
		}
	} else {
		today, err := s.refreshListing(ctx)
		if err != nil {
			return err
		}
		if err := s.loadLatest(ctx, today.Reference, today); err != nil {
			return err
		}
	}

	if err := s.streams.SetCurrentReference(ctx, s.reference); err != nil {
		if err := s.settleAttach(ctx, err); err != nil {
			s.logger.Warn("stream_attach_failed", logging.F("error", err))
		}
	}
	if _, err := s.streams.Resume(ctx); err != nil {
		if err := s.settleAttach(ctx, err); err != nil {
			s.logger.Warn("stream_resume_failed", logging.F("error", err))
		}
	}
	s.persist(ctx)
	s.logger.Info("bootstrap_complete",
		logging.F("reference", s.reference),
		logging.F("messages", len(s.messages)),
		logging.F("server_count", s.serverCount),
	)
	return nil
}

func (s *Session) loadSnapshot(ctx context.Context) *types.SessionSnapshot {
	if s.store == nil {
		return nil
	}
	snapshot, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		s.logger.Warn("snapshot_load_failed", logging.F("error", err))
		return nil
	}
	return snapshot
}

// hydrate shows the cached window and fetches the latest page only when the
// server's message count moved since the last sync.
func (s *Session) hydrate(ctx context.Context, snapshot *types.SessionSnapshot) error {
	s.reference = snapshot.CurrentReference
	s.messages = reconcile.Dedupe(snapshot.Messages)
	s.serverCount = snapshot.MessageCountAtLastSync

	summary, err := s.api.Summary(ctx, s.reference)
	if err != nil {
		return fmt.Errorf("load journal summary %s: %w", s.reference, err)
	}
	if summary.MessageCount != snapshot.MessageCountAtLastSync || (len(s.messages) == 0 && summary.MessageCount > 0) {
		rows, err := s.api.ListMessages(ctx, s.reference, nil, s.pageSize)
		if err != nil {
			return fmt.Errorf("load latest messages %s: %w", s.reference, err)
		}
		s.messages = reconcile.MergeLatest(s.messages, rows)
	}
	s.serverCount = summary.MessageCount
	return nil
}

// refreshListing loads today's journal and the journal list in parallel.
func (s *Session) refreshListing(ctx context.Context) (*types.JournalEntry, error) {
	var (
		today    *types.JournalEntry
		journals []types.JournalEntry
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		entry, err := s.api.Today(groupCtx, true)
		if err != nil {
			return fmt.Errorf("load today: %w", err)
		}
		today = entry
		return nil
	})
	group.Go(func() error {
		entries, err := s.api.ListJournals(groupCtx)
		if err != nil {
			return fmt.Errorf("list journals: %w", err)
		}
		journals = entries
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if today == nil || strings.TrimSpace(today.Reference) == "" {
		return nil, errors.New("today's journal is unavailable")
	}
	s.today = today.Reference
	s.journals = journals
	return today, nil
}

func (s *Session) loadLatest(ctx context.Context, reference types.ConversationReference, summary *types.JournalEntry) error {
	if reference == "" {
		return errors.New("reference is required")
	}
	if summary == nil {
		entry, err := s.api.Summary(ctx, reference)
		if err != nil {
			return fmt.Errorf("load journal summary %s: %w", reference, err)
		}
		summary = entry
	}
	rows, err := s.api.ListMessages(ctx, reference, nil, s.pageSize)
	if err != nil {
		return fmt.Errorf("load latest messages %s: %w", reference, err)
	}
	s.reference = reference
	s.messages = reconcile.ToChronologicalStoredMessages(rows)
	s.serverCount = summary.MessageCount
	return nil
}

// LoadOlder prepends the page preceding the oldest loaded message and
// returns how many messages were added.
func (s *Session) LoadOlder(ctx context.Context) (int, error) {
	if s.user == nil {
		return 0, ErrLoggedOut
	}
	cursor, ok := reconcile.OldestSequence(s.messages)
	if !ok {
		return 0, nil
	}
	rows, err := s.api.ListMessages(ctx, s.reference, &cursor, s.pageSize)
	if err != nil {
		return 0, fmt.Errorf("load older messages %s: %w", s.reference, err)
	}
	before := len(s.messages)
	s.messages = reconcile.PrependOlder(s.messages, rows)
	added := len(s.messages) - before
	if len(rows) == 0 && s.serverCount > 0 {
		// nothing older exists; stop offering more
		s.serverCount = countSequenced(s.messages)
	}
	s.persist(ctx)
	return added, nil
}

// SelectReference switches to another journal. The live turn of the journal
// being left keeps streaming server-side and is re-attached on return.
func (s *Session) SelectReference(ctx context.Context, reference types.ConversationReference) error {
	if s.user == nil {
		return ErrLoggedOut
	}
	reference = strings.Trim(strings.TrimSpace(reference), "/")
	if reference == "" {
		return errors.New("reference is required")
	}
	if err := s.loadLatest(ctx, reference, nil); err != nil {
		return err
	}
	if err := s.streams.SetCurrentReference(ctx, reference); err != nil {
		if err := s.settleAttach(ctx, err); err != nil {
			s.logger.Warn("stream_attach_failed", logging.F("error", err))
		}
	}
	s.persist(ctx)
	return nil
}

func (s *Session) CanChat() bool {
	return s.user != nil && s.reference != "" && s.reference == s.today
}

// Send appends the user's message optimistically and starts the assistant
// turn. When the backend cannot be reached a fallback assistant message is
// appended and the *streamsession.SendFailure is returned.
func (s *Session) Send(ctx context.Context, text string) error {
	if s.user == nil {
		return ErrLoggedOut
	}
	if !s.CanChat() {
		return ErrReadOnly
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if _, ok := s.streams.Pending(); ok {
		return streamsession.ErrStreamInProgress
	}
	clientID := reconcile.NewClientMessageID()
	s.messages = append(s.messages, types.Message{
		Role:            types.MessageRoleUser,
		Content:         text,
		ClientMessageID: clientID,
	})
	s.notice = ""
	s.persist(ctx)

	_, err := s.streams.Start(ctx, s.reference, text, clientID)
	var failure *streamsession.SendFailure
	switch {
	case errors.As(err, &failure):
		s.messages = append(s.messages, types.Message{
			Role:            types.MessageRoleAssistant,
			Content:         SendFallback,
			ClientMessageID: reconcile.NewClientMessageID(),
		})
		s.notice = ConnectivityMsg
		s.persist(ctx)
		return err
	case err != nil:
		return s.settleAttach(ctx, err)
	}
	return nil
}

// ApplyStreamTick folds up to max queued stream events into the session.
// A finished turn is appended to the message list and persisted.
func (s *Session) ApplyStreamTick(ctx context.Context, max int) streamsession.Update {
	update := s.streams.Drain(ctx, max)
	if update.Finished && update.Final != nil {
		final := *update.Final
		if final.Content != "" || len(final.ProcessInfos) > 0 {
			s.messages = reconcile.Dedupe(append(s.messages, final))
		}
		if update.Failed {
			s.notice = update.Error
		}
		s.persist(ctx)
	}
	if update.Closed {
		s.notice = ConnectivityMsg
	}
	return update
}

// ReattachStream retries the live channel of the visible turn.
func (s *Session) ReattachStream(ctx context.Context) error {
	if !s.streams.Visible() {
		return nil
	}
	if err := s.streams.Attach(ctx); err != nil {
		return s.settleAttach(ctx, err)
	}
	s.notice = ""
	return nil
}

// settleAttach handles a failed attach. A stream the backend no longer
// knows has finished server-side, so the latest page already holds its
// reply. Anything else is a connectivity problem and keeps the marker.
func (s *Session) settleAttach(ctx context.Context, err error) error {
	if !errors.Is(err, streamsession.ErrStreamGone) {
		s.notice = ConnectivityMsg
		return err
	}
	s.logger.Info("stream_gone_reloading", logging.F("reference", s.reference))
	if err := s.reloadLatest(ctx); err != nil {
		s.notice = ConnectivityMsg
		return err
	}
	s.notice = ""
	return nil
}

// reloadLatest merges the newest page of the visible journal into the
// window and persists it.
func (s *Session) reloadLatest(ctx context.Context) error {
	if s.reference == "" {
		return nil
	}
	summary, err := s.api.Summary(ctx, s.reference)
	if err != nil {
		return fmt.Errorf("load journal summary %s: %w", s.reference, err)
	}
	rows, err := s.api.ListMessages(ctx, s.reference, nil, s.pageSize)
	if err != nil {
		return fmt.Errorf("load latest messages %s: %w", s.reference, err)
	}
	s.messages = reconcile.MergeLatest(s.messages, rows)
	s.serverCount = summary.MessageCount
	s.persist(ctx)
	return nil
}

// Refresh re-reads today's journal and the listing, e.g. after a turn ends.
func (s *Session) Refresh(ctx context.Context) error {
	if s.user == nil {
		return ErrLoggedOut
	}
	if _, err := s.refreshListing(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.api.Login(ctx, email, password); err != nil {
		return err
	}
	return s.Bootstrap(ctx)
}

// Logout ends the backend session and forgets every local trace of it.
func (s *Session) Logout(ctx context.Context) error {
	apiErr := s.api.Logout(ctx)
	if apiErr != nil {
		s.logger.Warn("logout_failed", logging.F("error", apiErr))
	}
	if err := s.resetLocal(ctx); err != nil {
		return err
	}
	return apiErr
}

func (s *Session) resetLocal(ctx context.Context) error {
	s.user = nil
	s.reference = ""
	s.today = ""
	s.journals = nil
	s.messages = nil
	s.serverCount = 0
	s.notice = ""
	var errs []error
	if err := s.streams.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.store != nil {
		if err := s.store.ClearSnapshot(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) persist(ctx context.Context) {
	if s.store == nil || s.user == nil || s.reference == "" {
		return
	}
	snapshot := &types.SessionSnapshot{
		User:                   *s.user,
		CurrentReference:       s.reference,
		MessageCountAtLastSync: s.serverCount,
		Messages:               types.CloneMessages(s.messages),
	}
	if snapshot.Messages == nil {
		snapshot.Messages = []types.Message{}
	}
	if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
		s.logger.Warn("snapshot_save_failed", logging.F("error", err))
	}
}

func countSequenced(messages []types.Message) int {
	n := 0
	for _, msg := range messages {
		if msg.HasSequence() {
			n++
		}
	}
	return n
}
