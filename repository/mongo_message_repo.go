package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"community-backend/models"
)

// MongoMessageRepo backs MessageRepository with a messages collection.
// Subscribe uses change streams, which require a replica set.
type MongoMessageRepo struct {
	collection *mongo.Collection
}

func NewMongoMessageRepo(db *MongoDB) *MongoMessageRepo {
	return &MongoMessageRepo{collection: db.Collection("messages")}
}

type messageDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	ConversationID string             `bson:"conversation_id"`
	SenderID       string             `bson:"sender_id"`
	Content        string             `bson:"content"`
	Kind           models.MessageKind `bson:"kind"`
	CreatedAt      time.Time          `bson:"created_at"`
	Edited         bool               `bson:"edited"`
}

func (d *messageDocument) toMessage() models.Message {
	return models.Message{
		ID:             d.ID.Hex(),
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		Content:        d.Content,
		Kind:           d.Kind,
		CreatedAt:      d.CreatedAt,
		Edited:         d.Edited,
	}
}

func (r *MongoMessageRepo) Append(msg *models.Message) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	doc := messageDocument{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		Kind:           msg.Kind,
		CreatedAt:      msg.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	if doc.Kind == "" {
		doc.Kind = models.MessageText
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	doc.ID = result.InsertedID.(primitive.ObjectID)
	stored := doc.toMessage()
	return &stored, nil
}

func (r *MongoMessageRepo) ListByConversation(conversationID string, limit int) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return r.list(ctx, conversationID, limit)
}

func (r *MongoMessageRepo) list(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	msgs := make([]models.Message, 0)
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msgs = append(msgs, doc.toMessage())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Subscribe watches the messages collection for writes to the conversation
// and redelivers the full ordered slice on every change, matching the
// in-memory store's snapshot semantics.
func (r *MongoMessageRepo) Subscribe(conversationID string, fn func([]models.Message)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("nil subscriber")
	}

	ctx, cancel := context.WithCancel(context.Background())

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"fullDocument.conversation_id": conversationID,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	// Initial snapshot before any change events.
	snapshot, err := r.list(ctx, conversationID, 0)
	if err != nil {
		stream.Close(ctx)
		cancel()
		return nil, err
	}
	fn(snapshot)

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			msgs, err := r.list(ctx, conversationID, 0)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("message subscription re-query failed for conversation %s: %v", conversationID, err)
				}
				continue
			}
			fn(msgs)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			log.Printf("message change stream for conversation %s ended: %v", conversationID, err)
		}
	}()

	return cancel, nil
}
