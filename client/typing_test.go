package client

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTypingTrackerSetAndClear(t *testing.T) {
	tr := NewTypingTracker(time.Minute, nil)
	defer tr.Stop()

	tr.Set("bob", true)
	tr.Set("carol", true)
	assert.Equal(t, []string{"bob", "carol"}, tr.Active())

	tr.Set("bob", false)
	assert.Equal(t, []string{"carol"}, tr.Active())

	// Clearing an absent user is a no-op.
	tr.Set("dave", false)
	assert.Equal(t, []string{"carol"}, tr.Active())
}

func TestTypingTrackerAutoExpiry(t *testing.T) {
	// The indicator clears on its own when the isTyping:false event is lost.
	tr := NewTypingTracker(30*time.Millisecond, nil)
	defer tr.Stop()

	tr.Set("bob", true)
	assert.Equal(t, []string{"bob"}, tr.Active())

	assert.Eventually(t, func() bool {
		return len(tr.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingTrackerRefreshExtendsExpiry(t *testing.T) {
	tr := NewTypingTracker(60*time.Millisecond, nil)
	defer tr.Stop()

	tr.Set("bob", true)
	time.Sleep(40 * time.Millisecond)
	tr.Set("bob", true) // re-arm
	time.Sleep(40 * time.Millisecond)

	assert.Equal(t, []string{"bob"}, tr.Active(), "refresh should extend the expiry")

	assert.Eventually(t, func() bool {
		return len(tr.Active()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTypingTrackerOnChange(t *testing.T) {
	var mu sync.Mutex
	var changes [][]string
	tr := NewTypingTracker(30*time.Millisecond, func(active []string) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, active)
	})
	defer tr.Stop()

	tr.Set("bob", true)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) >= 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bob"}, changes[0])
	assert.Empty(t, changes[len(changes)-1], "expiry notifies with an empty set")
}

func TestTypingTrackerStop(t *testing.T) {
	tr := NewTypingTracker(10*time.Millisecond, nil)
	tr.Set("bob", true)
	tr.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, tr.Active())
}
