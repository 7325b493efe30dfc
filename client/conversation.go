package client

import (
	"community-backend/models"
	"community-backend/ws"
)

// Conversation is one open conversation as a client maintains it: the
// merged message view fed by the durable live query and by relay events,
// the compose/send flow, and peer typing state.
type Conversation struct {
	ID string

	view        *View
	composer    *Composer
	typing      *TypingTracker
	unsubscribe func()
}

// Open subscribes to the durable stream for conversationID and wires the
// reconciliation pieces together. relay may be nil (offline composition;
// peers still converge through the stream). Close releases the
// subscription.
func Open(selfID, conversationID string, store MessageStore, relay RelayEmitter, onTyping func([]string)) (*Conversation, error) {
	view := NewView(selfID)
	unsubscribe, err := store.Subscribe(conversationID, view.ApplySnapshot)
	if err != nil {
		return nil, err
	}
	return &Conversation{
		ID:          conversationID,
		view:        view,
		composer:    NewComposer(selfID, conversationID, view, store, relay),
		typing:      NewTypingTracker(0, onTyping),
		unsubscribe: unsubscribe,
	}, nil
}

func (c *Conversation) View() *View         { return c.view }
func (c *Conversation) Composer() *Composer { return c.composer }

// Messages returns the current merged view.
func (c *Conversation) Messages() []Entry { return c.view.Messages() }

// TypingUsers returns the peers currently typing.
func (c *Conversation) TypingUsers() []string { return c.typing.Active() }

// HandleNewMessage feeds a relay-delivered new-message event into the view.
// Events for other conversations are ignored.
func (c *Conversation) HandleNewMessage(p ws.NewMessagePayload) {
	if p.ConversationID != c.ID {
		return
	}
	c.view.ApplyRelay(models.Message{
		ID:             p.MessageID,
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		Content:        p.Content,
		Kind:           p.Kind,
		CreatedAt:      p.CreatedAt,
	}, p.ClientTempID)
	// A message from a peer also means they stopped typing.
	c.typing.Set(p.SenderID, false)
}

// HandleUserTyping feeds a relay-delivered typing event into the tracker.
func (c *Conversation) HandleUserTyping(p ws.UserTypingPayload) {
	if p.ConversationID != c.ID {
		return
	}
	c.typing.Set(p.UserID, p.IsTyping)
}

// Close cancels the durable subscription and pending typing expiries.
func (c *Conversation) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.typing.Stop()
}
