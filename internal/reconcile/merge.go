package reconcile

import "assistant/internal/types"

// PrependOlder puts an older page in front of the current list. Entries
// whose ClientMessageID is already present are skipped.
func PrependOlder(current []types.Message, olderRows []types.JournalMessage) []types.Message {
	older := ToChronologicalStoredMessages(olderRows)
	seen := identitySet(current)
	out := make([]types.Message, 0, len(older)+len(current))
	for _, msg := range older {
		if _, ok := seen[msg.ClientMessageID]; ok {
			continue
		}
		seen[msg.ClientMessageID] = struct{}{}
		out = append(out, msg)
	}
	return append(out, types.CloneMessages(current)...)
}

// MergeLatest replaces the newest window of current with a freshly fetched
// latest page. Cached messages older than the page are kept only when they
// run into it without a sequence gap; otherwise the page stands alone so
// LoadOlder can fill the hole. Unacknowledged messages are dropped because
// the server copy supersedes them.
func MergeLatest(current []types.Message, latestRows []types.JournalMessage) []types.Message {
	latest := Dedupe(ToChronologicalStoredMessages(latestRows))
	oldest, ok := OldestSequence(latest)
	if !ok {
		return latest
	}
	var (
		newestBelow int64
		found       bool
	)
	for _, msg := range current {
		seq, has := msg.SequenceValue()
		if !has || seq >= oldest {
			continue
		}
		if !found || seq > newestBelow {
			newestBelow = seq
			found = true
		}
	}
	if !found || newestBelow < oldest-1 {
		return latest
	}
	seen := identitySet(latest)
	out := make([]types.Message, 0, len(current)+len(latest))
	for _, msg := range current {
		seq, has := msg.SequenceValue()
		if !has || seq >= oldest {
			continue
		}
		if _, dup := seen[msg.ClientMessageID]; dup {
			continue
		}
		seen[msg.ClientMessageID] = struct{}{}
		out = append(out, types.CloneMessage(msg))
	}
	return append(out, latest...)
}

// Dedupe keeps the first occurrence of each ClientMessageID.
func Dedupe(messages []types.Message) []types.Message {
	if messages == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(messages))
	out := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		if _, ok := seen[msg.ClientMessageID]; ok {
			continue
		}
		seen[msg.ClientMessageID] = struct{}{}
		out = append(out, msg)
	}
	return out
}

// OldestSequence is the pagination cursor for loading older history.
func OldestSequence(messages []types.Message) (int64, bool) {
	var (
		oldest int64
		found  bool
	)
	for _, msg := range messages {
		seq, ok := msg.SequenceValue()
		if !ok {
			continue
		}
		if !found || seq < oldest {
			oldest = seq
			found = true
		}
	}
	return oldest, found
}

// HasOlder reports whether the server holds more messages than are loaded.
func HasOlder(messages []types.Message, serverCount int) bool {
	sequenced := 0
	for _, msg := range messages {
		if msg.HasSequence() {
			sequenced++
		}
	}
	return sequenced < serverCount
}

func identitySet(messages []types.Message) map[string]struct{} {
	out := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		out[msg.ClientMessageID] = struct{}{}
	}
	return out
}
