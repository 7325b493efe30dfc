package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-backend/models"
)

func TestViewOptimisticConfirm(t *testing.T) {
	v := NewView("alice")

	tempID := v.AddOptimistic("conv-1", "hello", models.MessageText)

	entries := v.Messages()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Pending)
	assert.Empty(t, entries[0].ID)
	assert.Equal(t, "alice", entries[0].SenderID)

	v.ConfirmDurable(tempID, models.Message{
		ID:             "m-1",
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		Kind:           models.MessageText,
		CreatedAt:      time.Now(),
	})

	entries = v.Messages()
	require.Len(t, entries, 1, "confirmation must not duplicate the row")
	assert.False(t, entries[0].Pending)
	assert.Equal(t, "m-1", entries[0].ID)
}

func TestViewRollback(t *testing.T) {
	v := NewView("alice")
	tempID := v.AddOptimistic("conv-1", "doomed", models.MessageText)
	v.Rollback(tempID)
	assert.Empty(t, v.Messages(), "no ghost entry after a failed write")
}

func TestViewRelayThenSnapshot(t *testing.T) {
	// A peer message arrives over the relay first, then again inside the
	// durable snapshot. It must appear exactly once.
	v := NewView("alice")
	msg := models.Message{
		ID:             "m-7",
		ConversationID: "conv-1",
		SenderID:       "bob",
		Content:        "hi alice",
		Kind:           models.MessageText,
		CreatedAt:      time.Now(),
	}

	v.ApplyRelay(msg, "")
	require.Len(t, v.Messages(), 1)

	v.ApplySnapshot([]models.Message{msg})
	entries := v.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-7", entries[0].ID)
}

func TestViewOwnEchoByTempID(t *testing.T) {
	// Another tab of the same user receives its own message back with the
	// client_temp_id attached; the pending row is upgraded, not duplicated.
	v := NewView("alice")
	tempID := v.AddOptimistic("conv-1", "hello", models.MessageText)

	v.ApplyRelay(models.Message{
		ID:             "m-1",
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		Kind:           models.MessageText,
		CreatedAt:      time.Now(),
	}, tempID)

	entries := v.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-1", entries[0].ID)
	assert.False(t, entries[0].Pending)
}

func TestViewOwnEchoByDedupRule(t *testing.T) {
	// No temp id available: the echo still folds into the pending entry when
	// sender and content match within the dedup window.
	v := NewView("alice")
	v.AddOptimistic("conv-1", "hello", models.MessageText)

	v.ApplyRelay(models.Message{
		ID:             "m-1",
		ConversationID: "conv-1",
		SenderID:       "alice",
		Content:        "hello",
		Kind:           models.MessageText,
		CreatedAt:      time.Now().Add(200 * time.Millisecond),
	}, "")

	entries := v.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-1", entries[0].ID)
}

func TestViewDedupWindowBoundary(t *testing.T) {
	// Identical sender and content but timestamps a full window apart are
	// two distinct messages ("hello" sent twice).
	v := NewView("alice")
	base := time.Now()

	v.ApplyRelay(models.Message{
		SenderID: "bob", Content: "hello", CreatedAt: base,
	}, "")
	v.ApplyRelay(models.Message{
		SenderID: "bob", Content: "hello", CreatedAt: base.Add(DedupWindow),
	}, "")

	assert.Len(t, v.Messages(), 2)
}

func TestViewSnapshotKeepsPendingEntries(t *testing.T) {
	// A snapshot that predates the in-flight optimistic send must not erase
	// it from the view.
	v := NewView("alice")
	old := models.Message{
		ID: "m-1", ConversationID: "conv-1", SenderID: "bob",
		Content: "earlier", CreatedAt: time.Now().Add(-time.Minute),
	}
	v.AddOptimistic("conv-1", "in flight", models.MessageText)

	v.ApplySnapshot([]models.Message{old})

	entries := v.Messages()
	require.Len(t, entries, 2)
	assert.Equal(t, "m-1", entries[0].ID)
	assert.True(t, entries[1].Pending)
	assert.Equal(t, "in flight", entries[1].Content)
}

func TestViewOrdering(t *testing.T) {
	v := NewView("alice")
	base := time.Now()

	v.ApplyRelay(models.Message{ID: "m-3", SenderID: "bob", Content: "third", CreatedAt: base.Add(2 * time.Second)}, "")
	v.ApplyRelay(models.Message{ID: "m-1", SenderID: "bob", Content: "first", CreatedAt: base}, "")
	v.ApplyRelay(models.Message{ID: "m-2", SenderID: "carol", Content: "second", CreatedAt: base.Add(time.Second)}, "")

	entries := v.Messages()
	require.Len(t, entries, 3)
	assert.Equal(t, "first", entries[0].Content)
	assert.Equal(t, "second", entries[1].Content)
	assert.Equal(t, "third", entries[2].Content)
}
