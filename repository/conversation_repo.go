package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"community-backend/models"
)

type ConversationRepository interface {
	Create(conv *models.Conversation) (*models.Conversation, error)
	FindByID(id string) (*models.Conversation, error)
	ListForUser(userID string) ([]models.Conversation, error)
	// UpdateLastMessage refreshes the preview fields after a durable send.
	UpdateLastMessage(id, preview string, at time.Time) error
}

type InMemoryConversationRepo struct {
	mu   sync.RWMutex
	data map[string]*models.Conversation
}

func NewInMemoryConversationRepo() *InMemoryConversationRepo {
	return &InMemoryConversationRepo{data: make(map[string]*models.Conversation)}
}

func (r *InMemoryConversationRepo) Create(conv *models.Conversation) (*models.Conversation, error) {
	if conv == nil {
		return nil, errors.New("nil conversation")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *conv
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	r.data[stored.ID] = &stored
	return &stored, nil
}

func (r *InMemoryConversationRepo) FindByID(id string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *conv
	return &c, nil
}

func (r *InMemoryConversationRepo) ListForUser(userID string) ([]models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	convs := make([]models.Conversation, 0)
	for _, conv := range r.data {
		if conv.HasParticipant(userID) {
			convs = append(convs, *conv)
		}
	}
	// Most recently active first, the order a conversation list renders in.
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
	return convs, nil
}

func (r *InMemoryConversationRepo) UpdateLastMessage(id, preview string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	conv.LastMessagePreview = preview
	conv.LastMessageAt = at
	return nil
}
