// Package client implements the conversation view a connected client
// maintains: optimistic pending entries reconciled against server
// broadcasts and paged history fetches.
package client

import (
	"strconv"
	"strings"

	"messenger-service/internal/models"
)

// Entry is one row of the timeline. Pending entries exist only locally,
// identified by LocalID until the server's broadcast replaces them.
type Entry struct {
	LocalID string
	Pending bool
	Message models.Message
}

// Timeline holds one chat's messages, newest first. It is not safe for
// concurrent use; callers serialize access the same way a UI event loop
// would.
type Timeline struct {
	chatID  string
	selfID  int64
	seq     int
	entries []Entry
	total   int
}

// NewTimeline creates an empty timeline for the chat, owned by selfID.
func NewTimeline(chatID string, selfID int64) *Timeline {
	return &Timeline{chatID: chatID, selfID: selfID}
}

// SubmitPending records an optimistic entry for content the client has
// sent but the server has not yet acknowledged. It returns the local id
// used to track the entry, or false when the content is blank.
func (t *Timeline) SubmitPending(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", false
	}

	t.seq++
	localID := "local-" + strconv.Itoa(t.seq)
	entry := Entry{
		LocalID: localID,
		Pending: true,
		Message: models.Message{
			ChatID:   t.chatID,
			SenderID: t.selfID,
			Content:  content,
		},
	}
	t.entries = append([]Entry{entry}, t.entries...)
	t.total++
	return localID, true
}

// ApplyBroadcast folds a newMessage broadcast into the timeline.
// A broadcast echoing the client's own send replaces its oldest matching
// pending entry; anything else is inserted at the head. Broadcasts for
// other chats and already-seen message ids are ignored.
func (t *Timeline) ApplyBroadcast(msg models.Message) {
	if msg.ChatID != t.chatID {
		return
	}
	for _, e := range t.entries {
		if !e.Pending && e.Message.ID == msg.ID {
			return
		}
	}

	if msg.SenderID == t.selfID {
		// There is no correlation id on the wire, so the echo is matched
		// to the oldest pending entry with the same content.
		for i := len(t.entries) - 1; i >= 0; i-- {
			e := t.entries[i]
			if e.Pending && e.Message.Content == msg.Content {
				t.entries[i] = Entry{Pending: false, Message: msg}
				return
			}
		}
	}

	t.entries = append([]Entry{{Pending: false, Message: msg}}, t.entries...)
	t.total++
}

// ApplyError handles a scoped send error by dropping the oldest pending
// entry; the server stored nothing, so the optimistic row must go.
func (t *Timeline) ApplyError() {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Pending {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			t.total--
			return
		}
	}
}

// MergePage folds an older history page into the timeline. Fetched
// messages attach after the existing entries; ids already present are
// skipped. The total resets to the server's count plus local pending.
func (t *Timeline) MergePage(page models.MessagePage) {
	seen := make(map[int64]struct{}, len(t.entries))
	pending := 0
	for _, e := range t.entries {
		if e.Pending {
			pending++
			continue
		}
		seen[e.Message.ID] = struct{}{}
	}

	for _, msg := range page.Data {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		t.entries = append(t.entries, Entry{Pending: false, Message: msg})
	}
	t.total = page.TotalMessages + pending
}

// Messages returns the timeline newest first.
func (t *Timeline) Messages() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Chronological returns the timeline oldest first, the order a
// conversation view renders it.
func (t *Timeline) Chronological() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[len(t.entries)-1-i] = e
	}
	return out
}

// Total reports the known message count, local pending included.
func (t *Timeline) Total() int {
	return t.total
}
