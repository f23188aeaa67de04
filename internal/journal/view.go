package journal

import (
	"assistant/internal/reconcile"
	"assistant/internal/types"
)

// View is a copy of everything the UI renders.
type View struct {
	LoggedIn       bool
	User           types.User
	Reference      types.ConversationReference
	Today          types.ConversationReference
	Journals       []types.JournalEntry
	Messages       []types.Message
	Streaming      *types.Message
	Thinking       bool
	CanChat        bool
	ReadOnlyReason string
	HasOlder       bool
	ServerCount    int
	Notice         string
}

func (s *Session) View() View {
	view := View{
		LoggedIn:    s.user != nil,
		Reference:   s.reference,
		Today:       s.today,
		Journals:    append([]types.JournalEntry(nil), s.journals...),
		Messages:    types.CloneMessages(s.messages),
		CanChat:     s.CanChat(),
		HasOlder:    reconcile.HasOlder(s.messages, s.serverCount),
		ServerCount: s.serverCount,
		Notice:      s.notice,
	}
	if s.user != nil {
		view.User = *s.user
	}
	if !view.CanChat && view.LoggedIn && s.reference != "" {
		view.ReadOnlyReason = ReadOnlyReason
	}
	if s.streams.Visible() {
		if message, ok := s.streams.Message(); ok {
			view.Streaming = &message
			view.Thinking = s.streams.AwaitingFirstChunk()
		}
	}
	return view
}

func (s *Session) Messages() []types.Message {
	return types.CloneMessages(s.messages)
}

func (s *Session) Reference() types.ConversationReference {
	return s.reference
}

func (s *Session) Streaming() bool {
	_, ok := s.streams.Pending()
	return ok
}

func (s *Session) StreamAttached() bool {
	return s.streams.Attached()
}

func (s *Session) Notice() string {
	return s.notice
}

func (s *Session) ClearNotice() {
	s.notice = ""
}
