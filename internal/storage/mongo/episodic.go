package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// EpisodicRepo logs conversation events in mongo. Conversations live in
// one collection, their messages in the shared memory collection keyed by
// memory_type "episodic".
type EpisodicRepo struct {
	client *Client
}

func NewEpisodicRepo(client *Client) *EpisodicRepo {
	return &EpisodicRepo{client: client}
}

type conversationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type episodicDoc struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"user_id"`
	MemoryType     string    `bson:"memory_type"`
	ConversationID string    `bson:"conversation_id"`
	Role           string    `bson:"role"`
	Content        string    `bson:"content"`
	ToolName       string    `bson:"tool_name,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
}

const memoryTypeEpisodic = "episodic"

func (r *EpisodicRepo) CreateConversation(ctx context.Context, userID string) (string, error) {
	now := time.Now().UTC()
	doc := conversationDoc{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.client.conversations().InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("conversation_id", doc.ID).Msg("created conversation")
	return doc.ID, nil
}

func (r *EpisodicRepo) AppendMessage(ctx context.Context, userID, conversationID string, msg core.Message) error {
	now := time.Now().UTC()
	doc := episodicDoc{
		ID:             uuid.NewString(),
		UserID:         userID,
		MemoryType:     memoryTypeEpisodic,
		ConversationID: conversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		ToolName:       msg.ToolName,
		CreatedAt:      now,
	}
	if _, err := r.client.memory().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append episodic message: %w", err)
	}

	_, err := r.client.conversations().UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"updated_at": now}},
	)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

func (r *EpisodicRepo) Query(ctx context.Context, userID string, filter core.EpisodicFilter, limit int) ([]core.EpisodicRecord, error) {
	query := bson.M{
		"user_id":     userID,
		"memory_type": memoryTypeEpisodic,
	}
	if filter.ConversationID != "" {
		query["conversation_id"] = filter.ConversationID
	}
	if filter.ContentMatch != "" {
		query["content"] = bson.M{"$regex": regexQuoteMeta(filter.ContentMatch), "$options": "i"}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.client.memory().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query episodic: %w", err)
	}
	defer cursor.Close(ctx)

	var records []core.EpisodicRecord
	for cursor.Next(ctx) {
		var doc episodicDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, core.EpisodicRecord{
			ID:             doc.ID,
			UserID:         doc.UserID,
			ConversationID: doc.ConversationID,
			Message: core.Message{
				Role:     doc.Role,
				Content:  doc.Content,
				ToolName: doc.ToolName,
			},
			CreatedAt: doc.CreatedAt,
		})
	}
	return records, cursor.Err()
}

func (r *EpisodicRepo) Conversation(ctx context.Context, conversationID string) (*core.Conversation, error) {
	var convDoc conversationDoc
	err := r.client.conversations().FindOne(ctx, bson.M{"_id": conversationID}).Decode(&convDoc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("conversation %s not found", conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.client.memory().Find(ctx, bson.M{
		"memory_type":     memoryTypeEpisodic,
		"conversation_id": conversationID,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("load conversation messages: %w", err)
	}
	defer cursor.Close(ctx)

	conv := &core.Conversation{
		ID:        convDoc.ID,
		UserID:    convDoc.UserID,
		CreatedAt: convDoc.CreatedAt,
		UpdatedAt: convDoc.UpdatedAt,
	}
	for cursor.Next(ctx) {
		var doc episodicDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, core.Message{
			Role:     doc.Role,
			Content:  doc.Content,
			ToolName: doc.ToolName,
		})
	}
	return conv, cursor.Err()
}

func (r *EpisodicRepo) UserConversations(ctx context.Context, userID string, limit int) ([]core.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.client.conversations().Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []core.Conversation
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		convs = append(convs, core.Conversation{
			ID:        doc.ID,
			UserID:    doc.UserID,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return convs, cursor.Err()
}

func (r *EpisodicRepo) DeleteConversation(ctx context.Context, conversationID string) error {
	if _, err := r.client.memory().DeleteMany(ctx, bson.M{
		"memory_type":     memoryTypeEpisodic,
		"conversation_id": conversationID,
	}); err != nil {
		return fmt.Errorf("delete episodic messages: %w", err)
	}
	if _, err := r.client.conversations().DeleteOne(ctx, bson.M{"_id": conversationID}); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
