package client

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-backend/models"
)

type fakeStore struct {
	mu        sync.Mutex
	appendErr error
	saved     []models.Message
	subs      []func([]models.Message)
}

func (s *fakeStore) Append(msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	out := *msg
	out.ID = fmt.Sprintf("m-%d", len(s.saved)+1)
	s.saved = append(s.saved, out)
	return &out, nil
}

func (s *fakeStore) Subscribe(_ string, fn func([]models.Message)) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	fn(append([]models.Message(nil), s.saved...))
	return func() {}, nil
}

type fakeRelay struct {
	mu      sync.Mutex
	err     error
	emitted []struct {
		ConversationID string
		Message        models.Message
		TempID         string
	}
}

func (r *fakeRelay) EmitSend(conversationID string, m models.Message, clientTempID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.emitted = append(r.emitted, struct {
		ConversationID string
		Message        models.Message
		TempID         string
	}{conversationID, m, clientTempID})
	return nil
}

func (r *fakeRelay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emitted)
}

func TestComposerSend(t *testing.T) {
	store := &fakeStore{}
	relay := &fakeRelay{}
	view := NewView("alice")
	c := NewComposer("alice", "conv-1", view, store, relay)

	c.SetDraft("hello bob")
	require.NoError(t, c.Send())

	assert.Empty(t, c.Draft(), "draft clears on send")

	entries := view.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-1", entries[0].ID)
	assert.False(t, entries[0].Pending)

	require.Equal(t, 1, relay.count())
	assert.Equal(t, "conv-1", relay.emitted[0].ConversationID)
	assert.Equal(t, "m-1", relay.emitted[0].Message.ID, "relay carries the durable id")
	assert.NotEmpty(t, relay.emitted[0].TempID)
}

func TestComposerSendEmptyDraft(t *testing.T) {
	c := NewComposer("alice", "conv-1", NewView("alice"), &fakeStore{}, nil)
	assert.ErrorIs(t, c.Send(), ErrEmptyDraft)
}

func TestComposerSendFailureRestoresDraft(t *testing.T) {
	store := &fakeStore{appendErr: errors.New("store down")}
	relay := &fakeRelay{}
	view := NewView("alice")
	c := NewComposer("alice", "conv-1", view, store, relay)

	c.SetDraft("hello bob")
	require.Error(t, c.Send())

	assert.Equal(t, "hello bob", c.Draft(), "failed send restores the draft")
	assert.Empty(t, view.Messages(), "optimistic entry rolled back")
	assert.Zero(t, relay.count(), "no relay for an unpersisted message")
}

func TestComposerRelayFailureIsBestEffort(t *testing.T) {
	store := &fakeStore{}
	relay := &fakeRelay{err: errors.New("socket closed")}
	view := NewView("alice")
	c := NewComposer("alice", "conv-1", view, store, relay)

	c.SetDraft("hello")
	require.NoError(t, c.Send(), "a failed relay emit does not fail the send")

	entries := view.Messages()
	require.Len(t, entries, 1)
	assert.Equal(t, "m-1", entries[0].ID)
}
