package models

import "time"

type ConversationKind string

const (
	ConversationPrivate ConversationKind = "private"
	ConversationGroup   ConversationKind = "group"
)

// Conversation is a durable chat channel. The participant set is fixed at
// creation; conversations are never deleted.
type Conversation struct {
	ID                 string           `json:"id"`
	Kind               ConversationKind `json:"kind"`
	ParticipantIDs     []string         `json:"participant_ids"`
	DisplayName        string           `json:"display_name,omitempty"`
	LastMessagePreview string           `json:"last_message_preview,omitempty"`
	LastMessageAt      time.Time        `json:"last_message_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}
