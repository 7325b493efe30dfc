package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"community-backend/models"
)

type MongoConversationRepo struct {
	collection *mongo.Collection
}

func NewMongoConversationRepo(db *MongoDB) *MongoConversationRepo {
	return &MongoConversationRepo{collection: db.Collection("conversations")}
}

type conversationDocument struct {
	ID                 primitive.ObjectID      `bson:"_id,omitempty"`
	Kind               models.ConversationKind `bson:"kind"`
	ParticipantIDs     []string                `bson:"participant_ids"`
	DisplayName        string                  `bson:"display_name,omitempty"`
	LastMessagePreview string                  `bson:"last_message_preview,omitempty"`
	LastMessageAt      time.Time               `bson:"last_message_at,omitempty"`
	CreatedAt          time.Time               `bson:"created_at"`
}

func (d *conversationDocument) toConversation() *models.Conversation {
	return &models.Conversation{
		ID:                 d.ID.Hex(),
		Kind:               d.Kind,
		ParticipantIDs:     d.ParticipantIDs,
		DisplayName:        d.DisplayName,
		LastMessagePreview: d.LastMessagePreview,
		LastMessageAt:      d.LastMessageAt,
		CreatedAt:          d.CreatedAt,
	}
}

func (r *MongoConversationRepo) Create(conv *models.Conversation) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	doc := conversationDocument{
		Kind:           conv.Kind,
		ParticipantIDs: conv.ParticipantIDs,
		DisplayName:    conv.DisplayName,
		CreatedAt:      time.Now(),
	}
	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	doc.ID = result.InsertedID.(primitive.ObjectID)
	return doc.toConversation(), nil
}

func (r *MongoConversationRepo) FindByID(id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	var doc conversationDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return doc.toConversation(), nil
}

func (r *MongoConversationRepo) ListForUser(userID string) ([]models.Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participant_ids": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	convs := make([]models.Conversation, 0)
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		convs = append(convs, *doc.toConversation())
	}
	return convs, cursor.Err()
}

func (r *MongoConversationRepo) UpdateLastMessage(id, preview string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid conversation ID: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"last_message_preview": preview,
		"last_message_at":      at,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
