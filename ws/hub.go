package ws

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// TokenVerifier checks the credential carried by an authenticate event and
// returns the user it identifies. A nil verifier makes the hub trust the
// event's user_id as-is (tests, trusted deployments behind a gateway).
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// TokenVerifierFunc adapts a function to the TokenVerifier interface.
type TokenVerifierFunc func(token string) (string, error)

func (f TokenVerifierFunc) Verify(token string) (string, error) { return f(token) }

// Backplane is the optional shared broadcast bus behind room fan-out. With
// a nil backplane the hub is strictly single-process; the relay protocol
// surface is identical either way.
type Backplane interface {
	Publish(roomID string, frame []byte) error
	Subscribe(handler func(roomID string, frame []byte)) error
}

// Conn is one live relay connection as the hub sees it. The transport layer
// (ServeWS, or a test) drains Frames and feeds inbound bytes to Handle.
type Conn struct {
	ID   string
	send chan []byte
}

// Frames returns the outbound frame stream for this connection.
func (c *Conn) Frames() <-chan []byte { return c.send }

type hubEventKind int

const (
	evConnect hubEventKind = iota
	evDisconnect
	evFrame
	evRemote
)

type hubEvent struct {
	kind  hubEventKind
	conn  *Conn
	frame *ClientEvent

	// remote fan-out (backplane)
	roomID string
	raw    []byte
}

// Hub is the presence and message relay: it owns the Registry and Router,
// serializes every connection, room and broadcast mutation on a single
// event loop, and fans conversation events out to joined peers. Events from
// unauthenticated connections (other than authenticate) are dropped, not
// answered; that choice is uniform across the protocol.
type Hub struct {
	registry  *Registry
	rooms     *Router
	verifier  TokenVerifier
	backplane Backplane

	conns  map[string]*Conn
	events chan hubEvent

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub wires the hub from its injected parts. verifier and backplane may
// be nil.
func NewHub(registry *Registry, rooms *Router, verifier TokenVerifier, backplane Backplane) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:  registry,
		rooms:     rooms,
		verifier:  verifier,
		backplane: backplane,
		conns:     make(map[string]*Conn),
		events:    make(chan hubEvent, 256),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Run processes hub events until Shutdown. Call in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	if h.backplane != nil {
		err := h.backplane.Subscribe(func(roomID string, frame []byte) {
			select {
			case h.events <- hubEvent{kind: evRemote, roomID: roomID, raw: frame}:
			case <-h.ctx.Done():
			}
		})
		if err != nil {
			log.Printf("Backplane subscribe failed, continuing single-process: %v", err)
		}
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownConns()
			return
		case evt := <-h.events:
			h.handle(evt)
		}
	}
}

// Shutdown stops the loop and closes every connection's outbound stream.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Connect registers a new connection with the hub and returns its handle.
func (h *Hub) Connect() *Conn {
	conn := &Conn{
		ID:   uuid.NewString(),
		send: make(chan []byte, 256),
	}
	h.enqueue(hubEvent{kind: evConnect, conn: conn})
	return conn
}

// Disconnect tears the connection down: registry binding, room memberships
// and presence broadcast. Terminal for the connection.
func (h *Hub) Disconnect(conn *Conn) {
	h.enqueue(hubEvent{kind: evDisconnect, conn: conn})
}

// Handle decodes one inbound frame and feeds it to the loop. Malformed and
// unknown frames are dropped.
func (h *Hub) Handle(conn *Conn, raw []byte) {
	evt, err := DecodeClientEvent(raw)
	if err != nil {
		log.Printf("Dropping frame from connection %s: %v", conn.ID, err)
		return
	}
	h.enqueue(hubEvent{kind: evFrame, conn: conn, frame: evt})
}

func (h *Hub) enqueue(evt hubEvent) {
	select {
	case h.events <- evt:
	case <-h.ctx.Done():
	}
}

func (h *Hub) handle(evt hubEvent) {
	switch evt.kind {
	case evConnect:
		h.conns[evt.conn.ID] = evt.conn
		log.Printf("Connection %s registered. Total connections: %d", evt.conn.ID, len(h.conns))

	case evDisconnect:
		h.teardown(evt.conn.ID)

	case evFrame:
		h.handleFrame(evt.conn, evt.frame)

	case evRemote:
		h.broadcastToRoom(evt.roomID, evt.raw, "")
	}
}

func (h *Hub) handleFrame(conn *Conn, evt *ClientEvent) {
	if _, ok := h.conns[conn.ID]; !ok {
		return
	}

	if evt.Kind == EventAuthenticate {
		h.handleAuthenticate(conn, evt.Authenticate)
		return
	}

	userID, authenticated := h.registry.UserFor(conn.ID)
	if !authenticated {
		log.Printf("Dropping %s from unauthenticated connection %s", evt.Kind, conn.ID)
		return
	}

	switch evt.Kind {
	case EventJoinRoom:
		h.rooms.Join(conn.ID, evt.Room.ConversationID)
	case EventLeaveRoom:
		h.rooms.Leave(conn.ID, evt.Room.ConversationID)
	case EventSendMessage:
		h.handleSendMessage(conn, userID, evt.Send)
	case EventTyping:
		h.handleTyping(conn, userID, evt.Typing)
	}
}

func (h *Hub) handleAuthenticate(conn *Conn, p *AuthenticatePayload) {
	userID := p.UserID
	if h.verifier != nil {
		verified, err := h.verifier.Verify(p.Token)
		if err != nil {
			log.Printf("Dropping authenticate from connection %s: %v", conn.ID, err)
			return
		}
		if userID != "" && userID != verified {
			log.Printf("Dropping authenticate from connection %s: user mismatch", conn.ID)
			return
		}
		userID = verified
	}
	if userID == "" {
		log.Printf("Dropping authenticate from connection %s: empty user id", conn.ID)
		return
	}

	h.registry.Authenticate(conn.ID, userID)
	// Every successful authenticate broadcasts the snapshot, even when the
	// derived set is unchanged: the authenticating connection needs its
	// initial presence view.
	h.broadcastPresence()
	log.Printf("Connection %s authenticated as user %s", conn.ID, userID)
}

func (h *Hub) handleSendMessage(conn *Conn, userID string, p *SendMessagePayload) {
	if !h.rooms.InRoom(conn.ID, p.ConversationID) {
		log.Printf("Dropping send-message from connection %s: not joined to %s", conn.ID, p.ConversationID)
		return
	}

	// sender_id comes from the connection binding, never from the payload.
	frame, err := EncodeFrame(EventNewMessage, NewMessagePayload{
		ConversationID: p.ConversationID,
		MessageID:      p.MessageID,
		SenderID:       userID,
		Content:        p.Content,
		Kind:           p.Kind,
		ClientTempID:   p.ClientTempID,
		CreatedAt:      p.CreatedAt,
	})
	if err != nil {
		log.Printf("Failed to encode new-message frame: %v", err)
		return
	}
	h.broadcastToRoom(p.ConversationID, frame, conn.ID)
	h.publishRemote(p.ConversationID, frame)
}

func (h *Hub) handleTyping(conn *Conn, userID string, p *TypingPayload) {
	if !h.rooms.InRoom(conn.ID, p.ConversationID) {
		return
	}

	frame, err := EncodeFrame(EventUserTyping, UserTypingPayload{
		ConversationID: p.ConversationID,
		UserID:         userID,
		IsTyping:       p.IsTyping,
	})
	if err != nil {
		log.Printf("Failed to encode user-typing frame: %v", err)
		return
	}
	h.broadcastToRoom(p.ConversationID, frame, conn.ID)
	h.publishRemote(p.ConversationID, frame)
}

func (h *Hub) teardown(connID string) {
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	h.rooms.DropConnection(connID)
	_, changed := h.registry.Disconnect(connID)
	delete(h.conns, connID)
	close(conn.send)
	if changed {
		h.broadcastPresence()
	}
	log.Printf("Connection %s unregistered. Total connections: %d", connID, len(h.conns))
}

// broadcastPresence sends the full presence snapshot to every connection.
// The snapshot is derived at broadcast time, never cached.
func (h *Hub) broadcastPresence() {
	frame, err := EncodeFrame(EventOnlineUsers, OnlineUsersPayload{UserIDs: h.registry.OnlineUsers()})
	if err != nil {
		log.Printf("Failed to encode online-users frame: %v", err)
		return
	}

	var stalled []string
	for id, conn := range h.conns {
		if !trySend(conn, frame) {
			stalled = append(stalled, id)
		}
	}
	h.dropStalled(stalled)
}

// broadcastToRoom delivers frame to each member of the room except exclude.
// An empty room is a silent no-op; the durable stream covers absent peers.
func (h *Hub) broadcastToRoom(roomID string, frame []byte, exclude string) {
	var stalled []string
	for _, connID := range h.rooms.Members(roomID) {
		if connID == exclude {
			continue
		}
		conn, ok := h.conns[connID]
		if !ok {
			continue
		}
		if !trySend(conn, frame) {
			stalled = append(stalled, connID)
		}
	}
	h.dropStalled(stalled)
}

func (h *Hub) publishRemote(roomID string, frame []byte) {
	if h.backplane == nil {
		return
	}
	if err := h.backplane.Publish(roomID, frame); err != nil {
		log.Printf("Backplane publish for room %s failed: %v", roomID, err)
	}
}

// trySend never blocks the loop; a full buffer marks the connection stalled.
func trySend(conn *Conn, frame []byte) bool {
	select {
	case conn.send <- frame:
		return true
	default:
		return false
	}
}

func (h *Hub) dropStalled(connIDs []string) {
	for _, id := range connIDs {
		log.Printf("Dropping stalled connection %s", id)
		h.teardown(id)
	}
}

func (h *Hub) shutdownConns() {
	for id, conn := range h.conns {
		h.rooms.DropConnection(id)
		h.registry.Disconnect(id)
		delete(h.conns, id)
		close(conn.send)
	}
	log.Println("Hub shut down, all connections closed")
}
