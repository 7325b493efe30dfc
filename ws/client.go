package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readDeadline  = 300 * time.Second
	writeDeadline = 30 * time.Second
	pingInterval  = 240 * time.Second
	maxFrameSize  = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is handled at the HTTP layer; the relay accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and bridges the socket to a hub connection.
// The connection starts Unauthenticated; the client must send an
// authenticate event before anything else is honored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	conn := h.Connect()
	log.Printf("WebSocket connection %s established from %s", conn.ID, r.RemoteAddr)

	go h.writePump(conn, sock)
	go h.readPump(conn, sock)
}

func (h *Hub) readPump(conn *Conn, sock *websocket.Conn) {
	defer func() {
		h.Disconnect(conn)
		sock.Close()
	}()
	sock.SetReadLimit(maxFrameSize)
	sock.SetReadDeadline(time.Now().Add(readDeadline))
	sock.SetPongHandler(func(string) error {
		sock.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Connection %s read error: %v", conn.ID, err)
			}
			return
		}
		h.Handle(conn, raw)
	}
}

func (h *Hub) writePump(conn *Conn, sock *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sock.Close()
	}()
	for {
		select {
		case frame, ok := <-conn.send:
			sock.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Connection %s write error: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			sock.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Connection %s ping error: %v", conn.ID, err)
				return
			}
		}
	}
}
