package services

import (
	"errors"

	"community-backend/models"
	"community-backend/repository"
)

type ConversationService struct {
	convs repository.ConversationRepository
	users repository.UserRepository
}

func NewConversationService(cr repository.ConversationRepository, ur repository.UserRepository) *ConversationService {
	return &ConversationService{convs: cr, users: ur}
}

// Create fixes the participant set for the lifetime of the conversation.
func (s *ConversationService) Create(kind models.ConversationKind, participantIDs []string, displayName string) (*models.Conversation, error) {
	participants := dedupeIDs(participantIDs)

	switch kind {
	case models.ConversationPrivate:
		if len(participants) != 2 {
			return nil, errors.New("private conversation requires exactly 2 participants")
		}
	case models.ConversationGroup:
		if len(participants) < 2 {
			return nil, errors.New("group conversation requires at least 2 participants")
		}
		if displayName == "" {
			return nil, errors.New("group conversation requires a display name")
		}
	default:
		return nil, errors.New("unknown conversation kind")
	}

	for _, id := range participants {
		if _, err := s.users.FindByID(id); err != nil {
			return nil, errors.New("participant not found: " + id)
		}
	}

	return s.convs.Create(&models.Conversation{
		Kind:           kind,
		ParticipantIDs: participants,
		DisplayName:    displayName,
	})
}

func (s *ConversationService) ListForUser(userID string) ([]models.Conversation, error) {
	return s.convs.ListForUser(userID)
}

// Get returns the conversation only to its participants.
func (s *ConversationService) Get(conversationID, userID string) (*models.Conversation, error) {
	conv, err := s.convs.FindByID(conversationID)
	if err != nil {
		return nil, errors.New("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.New("not a participant of this conversation")
	}
	return conv, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
