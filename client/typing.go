package client

import (
	"sort"
	"sync"
	"time"
)

// TypingExpiry is how long a peer's typing indicator survives without a
// fresh typing event. The auto-expiry covers a lost isTyping:false relay.
const TypingExpiry = 3 * time.Second

// TypingTracker keeps the set of peers currently typing in a conversation.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	timers   map[string]*time.Timer
	onChange func(active []string)
}

// NewTypingTracker builds a tracker with the given expiry; ttl <= 0 means
// TypingExpiry. onChange (optional) fires with the active set after every
// change, including expiries.
func NewTypingTracker(ttl time.Duration, onChange func([]string)) *TypingTracker {
	if ttl <= 0 {
		ttl = TypingExpiry
	}
	return &TypingTracker{
		ttl:      ttl,
		timers:   make(map[string]*time.Timer),
		onChange: onChange,
	}
}

// Set records a typing signal for userID. typing=true arms (or re-arms) the
// expiry; typing=false clears immediately.
func (t *TypingTracker) Set(userID string, typing bool) {
	t.mu.Lock()
	if typing {
		if timer, ok := t.timers[userID]; ok {
			timer.Reset(t.ttl)
			t.mu.Unlock()
			return
		}
		t.timers[userID] = time.AfterFunc(t.ttl, func() { t.expire(userID) })
	} else {
		t.clearLocked(userID)
	}
	active := t.activeLocked()
	t.mu.Unlock()

	t.notify(active)
}

// Active returns the users currently typing, sorted.
func (t *TypingTracker) Active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked()
}

// Stop cancels all pending expiries.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
}

func (t *TypingTracker) expire(userID string) {
	t.mu.Lock()
	if _, ok := t.timers[userID]; !ok {
		t.mu.Unlock()
		return
	}
	t.clearLocked(userID)
	active := t.activeLocked()
	t.mu.Unlock()

	t.notify(active)
}

func (t *TypingTracker) clearLocked(userID string) {
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
		delete(t.timers, userID)
	}
}

func (t *TypingTracker) activeLocked() []string {
	active := make([]string, 0, len(t.timers))
	for id := range t.timers {
		active = append(active, id)
	}
	sort.Strings(active)
	return active
}

func (t *TypingTracker) notify(active []string) {
	if t.onChange != nil {
		t.onChange(active)
	}
}
