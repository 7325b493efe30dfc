// Package backplane provides a shared broadcast bus so room fan-out can
// span multiple hub processes. The relay protocol surface is unchanged;
// a hub with no backplane behaves identically within its own process.
package backplane

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const subjectPrefix = "relay.room."

type envelope struct {
	Origin string `json:"origin"`
	RoomID string `json:"room_id"`
	Frame  []byte `json:"frame"`
}

// NATS implements ws.Backplane over core NATS subjects, one per room.
// Frames published by this instance are filtered out on receipt by origin
// id, so local delivery stays with the local hub.
type NATS struct {
	conn   *nats.Conn
	origin string
	sub    *nats.Subscription
}

func ConnectNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS at %s", url)
	return &NATS{conn: conn, origin: uuid.NewString()}, nil
}

func (b *NATS) Publish(roomID string, frame []byte) error {
	data, err := json.Marshal(envelope{Origin: b.origin, RoomID: roomID, Frame: frame})
	if err != nil {
		return err
	}
	return b.conn.Publish(subjectPrefix+roomID, data)
}

func (b *NATS) Subscribe(handler func(roomID string, frame []byte)) error {
	sub, err := b.conn.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Printf("Dropping malformed backplane message on %s: %v", msg.Subject, err)
			return
		}
		if env.Origin == b.origin {
			return
		}
		handler(env.RoomID, env.Frame)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to backplane: %w", err)
	}
	b.sub = sub
	return nil
}

func (b *NATS) Close() {
	if b.sub != nil {
		b.sub.Unsubscribe()
	}
	if b.conn != nil {
		b.conn.Close()
	}
}
