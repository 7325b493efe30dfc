package client

import (
	"errors"
	"log"
	"sync"
	"time"

	"community-backend/models"
)

// MessageStore is the durable collaborator as the client sees it: an append
// that assigns the durable id and a live query per conversation.
// repository.InMemoryMessageRepo and repository.MongoMessageRepo satisfy it.
type MessageStore interface {
	Append(msg *models.Message) (*models.Message, error)
	Subscribe(conversationID string, fn func([]models.Message)) (func(), error)
}

// RelayEmitter sends the post-durable-write notification to connected
// peers. Implementations wrap the websocket transport; tests use fakes.
type RelayEmitter interface {
	EmitSend(conversationID string, m models.Message, clientTempID string) error
}

// Composer drives the optimistic send flow for one conversation: draft ->
// optimistic insert -> durable append -> relay emit. On durable failure the
// optimistic entry is rolled back and the draft restored so the user can
// retry; the relay event is never emitted for a message that failed to
// persist.
type Composer struct {
	mu             sync.Mutex
	selfID         string
	conversationID string
	draft          string

	view  *View
	store MessageStore
	relay RelayEmitter
}

func NewComposer(selfID, conversationID string, view *View, store MessageStore, relay RelayEmitter) *Composer {
	return &Composer{
		selfID:         selfID,
		conversationID: conversationID,
		view:           view,
		store:          store,
		relay:          relay,
	}
}

func (c *Composer) SetDraft(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = s
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

var ErrEmptyDraft = errors.New("nothing to send")

// Send sends the current draft as a text message.
func (c *Composer) Send() error {
	c.mu.Lock()
	content := c.draft
	c.draft = ""
	c.mu.Unlock()

	if content == "" {
		return ErrEmptyDraft
	}

	if err := c.send(content, models.MessageText); err != nil {
		// Restore the draft unless the user already typed something new.
		c.mu.Lock()
		if c.draft == "" {
			c.draft = content
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Composer) send(content string, kind models.MessageKind) error {
	tempID := c.view.AddOptimistic(c.conversationID, content, kind)

	saved, err := c.store.Append(&models.Message{
		ConversationID: c.conversationID,
		SenderID:       c.selfID,
		Content:        content,
		Kind:           kind,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		c.view.Rollback(tempID)
		return err
	}

	c.view.ConfirmDurable(tempID, *saved)

	if c.relay != nil {
		// Best effort: peers missed by the relay catch up via the stream.
		if err := c.relay.EmitSend(c.conversationID, *saved, tempID); err != nil {
			log.Printf("relay emit for message %s failed: %v", saved.ID, err)
		}
	}
	return nil
}
