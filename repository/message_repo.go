package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"community-backend/models"
)

// MessageRepository is the durable store contract the relay core builds on:
// an append that assigns the durable id, an ordered read, and a
// subscribe-for-changes live query that redelivers the full ordered slice
// for a conversation whenever any participant's write lands.
type MessageRepository interface {
	Append(msg *models.Message) (*models.Message, error)
	ListByConversation(conversationID string, limit int) ([]models.Message, error)
	// Subscribe delivers the current snapshot immediately, then again on
	// every change. The returned func cancels the subscription.
	Subscribe(conversationID string, fn func([]models.Message)) (func(), error)
}

type InMemoryMessageRepo struct {
	mu     sync.RWMutex
	data   map[string]*models.Message
	byConv map[string][]string // conversation -> message IDs, append order

	subs map[string]map[string]func([]models.Message)
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		data:   make(map[string]*models.Message),
		byConv: make(map[string][]string),
		subs:   make(map[string]map[string]func([]models.Message)),
	}
}

func (r *InMemoryMessageRepo) Append(msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	r.mu.Lock()
	stored := *msg
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.Kind == "" {
		stored.Kind = models.MessageText
	}
	r.data[stored.ID] = &stored
	r.byConv[stored.ConversationID] = append(r.byConv[stored.ConversationID], stored.ID)

	snapshot := r.snapshotLocked(stored.ConversationID, 0)
	fns := make([]func([]models.Message), 0, len(r.subs[stored.ConversationID]))
	for _, fn := range r.subs[stored.ConversationID] {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	// Deliver outside the lock; subscribers may call back into the repo.
	for _, fn := range fns {
		fn(snapshot)
	}
	return &stored, nil
}

func (r *InMemoryMessageRepo) ListByConversation(conversationID string, limit int) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(conversationID, limit), nil
}

func (r *InMemoryMessageRepo) Subscribe(conversationID string, fn func([]models.Message)) (func(), error) {
	if fn == nil {
		return nil, errors.New("nil subscriber")
	}
	subID := uuid.NewString()

	r.mu.Lock()
	if r.subs[conversationID] == nil {
		r.subs[conversationID] = make(map[string]func([]models.Message))
	}
	r.subs[conversationID][subID] = fn
	snapshot := r.snapshotLocked(conversationID, 0)
	r.mu.Unlock()

	fn(snapshot)

	unsubscribe := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[conversationID], subID)
		if len(r.subs[conversationID]) == 0 {
			delete(r.subs, conversationID)
		}
	}
	return unsubscribe, nil
}

func (r *InMemoryMessageRepo) snapshotLocked(conversationID string, limit int) []models.Message {
	ids := r.byConv[conversationID]
	msgs := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, *r.data[id])
	}
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}
