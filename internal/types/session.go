package types

type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionSnapshot is the persisted client cache. The JSON keys match the
// cache written by earlier clients so existing snapshots keep loading.
type SessionSnapshot struct {
	User                   User                  `json:"user"`
	CurrentReference       ConversationReference `json:"journalReference"`
	MessageCountAtLastSync int                   `json:"messageCount"`
	Messages               []Message             `json:"messages"`
}

// StreamSession marks an assistant turn that may still be generating
// server-side. Reference is the journal that was current when the turn was
// sent.
type StreamSession struct {
	StreamID  string                `json:"streamId"`
	Reference ConversationReference `json:"reference"`
}

func (s StreamSession) Valid() bool {
	return s.StreamID != "" && s.Reference != ""
}
