// Package client implements the reconciliation layer a chat client keeps
// per open conversation: one deduplicated, time-ordered message view merged
// from optimistic local inserts, durable-store snapshots and relay-delivered
// peer events, plus the optimistic send flow and typing indicators.
package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"community-backend/models"
)

// DedupWindow is the timestamp tolerance used to match entries that do not
// yet carry a durable id: same sender, same content, timestamps closer than
// this are treated as one logical message. The match is a pragmatic
// heuristic covering clock skew between an optimistic insert or relay event
// and the durable copy, not a guaranteed dedup.
const DedupWindow = time.Second

// Entry is one row of the materialized view. Pending entries are optimistic
// sends awaiting durable confirmation and carry a TempID instead of a
// durable Message.ID.
type Entry struct {
	models.Message
	TempID  string
	Pending bool
}

// View holds the merged message list for one conversation. All methods are
// safe for concurrent use; relay and stream callbacks land on different
// goroutines.
type View struct {
	mu      sync.Mutex
	selfID  string
	entries []Entry
}

func NewView(selfID string) *View {
	return &View{selfID: selfID}
}

// AddOptimistic inserts a locally-originated message with a temporary id
// and the local clock as its provisional timestamp. Returns the temp id.
func (v *View) AddOptimistic(conversationID, content string, kind models.MessageKind) string {
	if kind == "" {
		kind = models.MessageText
	}
	tempID := uuid.NewString()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, Entry{
		Message: models.Message{
			ConversationID: conversationID,
			SenderID:       v.selfID,
			Content:        content,
			Kind:           kind,
			CreatedAt:      time.Now(),
		},
		TempID:  tempID,
		Pending: true,
	})
	v.sortLocked()
	return tempID
}

// ConfirmDurable replaces the optimistic entry's identity with the durable
// message, in place, leaving no duplicate row.
func (v *View) ConfirmDurable(tempID string, m models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].TempID == tempID {
			v.entries[i] = Entry{Message: m, TempID: tempID}
			v.sortLocked()
			return
		}
	}
}

// Rollback removes an optimistic entry after a failed durable write. No
// ghost entry remains.
func (v *View) Rollback(tempID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.entries {
		if v.entries[i].TempID == tempID {
			v.entries = append(v.entries[:i], v.entries[i+1:]...)
			return
		}
	}
}

// ApplyRelay merges a relay-delivered message. A peer copy is appended
// immediately for latency; the client's own echo (multi-tab, or a relay
// loop) is matched by clientTempID or the dedup rule and never duplicated.
func (v *View) ApplyRelay(m models.Message, clientTempID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if clientTempID != "" {
		for i := range v.entries {
			if v.entries[i].TempID == clientTempID {
				v.upgradeLocked(i, m)
				return
			}
		}
	}
	for i := range v.entries {
		if sameMessage(&v.entries[i], &m) {
			v.upgradeLocked(i, m)
			return
		}
	}

	v.entries = append(v.entries, Entry{Message: m})
	v.sortLocked()
}

// ApplySnapshot merges the durable store's authoritative view. Snapshot
// entries replace whatever they match; pending optimistic entries and relay
// entries the stream has not caught up with are carried over.
func (v *View) ApplySnapshot(msgs []models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	merged := make([]Entry, 0, len(msgs)+len(v.entries))
	for _, m := range msgs {
		merged = append(merged, Entry{Message: m})
	}

	for i := range v.entries {
		old := &v.entries[i]
		matched := false
		for _, m := range msgs {
			if sameMessage(old, &m) {
				matched = true
				break
			}
		}
		if !matched {
			merged = append(merged, *old)
		}
	}

	v.entries = merged
	v.sortLocked()
}

// Messages returns the materialized view, ascending by time.
func (v *View) Messages() []Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// upgradeLocked folds a durable copy into an existing entry, keeping the
// row but adopting the durable identity when the existing one lacks it.
func (v *View) upgradeLocked(i int, m models.Message) {
	if m.ID != "" {
		v.entries[i].Message = m
		v.entries[i].Pending = false
		v.sortLocked()
	}
}

// sameMessage implements the dedup rule: equal durable ids, or, when
// either side still lacks one, equal (sender, content) with timestamps
// inside DedupWindow.
func sameMessage(e *Entry, m *models.Message) bool {
	if e.ID != "" && m.ID != "" {
		return e.ID == m.ID
	}
	if e.SenderID != m.SenderID || e.Content != m.Content {
		return false
	}
	delta := e.CreatedAt.Sub(m.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < DedupWindow
}

func (v *View) sortLocked() {
	sort.SliceStable(v.entries, func(i, j int) bool {
		return v.entries[i].CreatedAt.Before(v.entries[j].CreatedAt)
	})
}
