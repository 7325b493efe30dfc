package services

import (
	"errors"
	"log"
	"strconv"
	"time"
	"unicode/utf8"

	"community-backend/config"
	"community-backend/models"
	"community-backend/repository"
)

// MessageService is the durable-write leg of the send contract: callers
// persist here first and only then relay the event to connected peers.
type MessageService struct {
	msgs   repository.MessageRepository
	convs  repository.ConversationRepository
	config *config.Config
}

func NewMessageService(mr repository.MessageRepository, cr repository.ConversationRepository, cfg *config.Config) *MessageService {
	return &MessageService{msgs: mr, convs: cr, config: cfg}
}

func (s *MessageService) Send(conversationID, senderID, content string, kind models.MessageKind) (*models.Message, error) {
	if content == "" {
		return nil, errors.New("empty content")
	}
	if len(content) > s.config.MaxMessageLength {
		return nil, errors.New("message too long (max " + strconv.Itoa(s.config.MaxMessageLength) + " characters)")
	}
	switch kind {
	case "", models.MessageText, models.MessageImage, models.MessageFile:
	default:
		return nil, errors.New("unknown message kind")
	}

	conv, err := s.convs.FindByID(conversationID)
	if err != nil {
		return nil, errors.New("conversation not found")
	}
	if !conv.HasParticipant(senderID) {
		return nil, errors.New("sender is not a participant of this conversation")
	}

	saved, err := s.msgs.Append(&models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Kind:           kind,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.convs.UpdateLastMessage(conversationID, preview(saved), saved.CreatedAt); err != nil {
		// The message is durable; a stale preview is tolerable.
		log.Printf("failed to update conversation %s preview: %v", conversationID, err)
	}
	return saved, nil
}

func (s *MessageService) List(conversationID, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	conv, err := s.convs.FindByID(conversationID)
	if err != nil {
		return nil, errors.New("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.New("not a participant of this conversation")
	}

	return s.msgs.ListByConversation(conversationID, limit)
}

const previewLimit = 80

func preview(m *models.Message) string {
	switch m.Kind {
	case models.MessageImage:
		return "[image]"
	case models.MessageFile:
		return "[file]"
	}
	if len(m.Content) <= previewLimit {
		return m.Content
	}
	cut := previewLimit
	// Back off to a rune boundary so the preview stays valid UTF-8.
	for cut > 0 && !utf8.RuneStart(m.Content[cut]) {
		cut--
	}
	return m.Content[:cut]
}
