package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recall-agent/recall/internal/core"
)

// ProceduralRepo logs tool-usage outcomes and turn patterns in the shared
// memory collection, keyed by memory_type "procedural".
type ProceduralRepo struct {
	client *Client
}

func NewProceduralRepo(client *Client) *ProceduralRepo {
	return &ProceduralRepo{client: client}
}

type proceduralDoc struct {
	ID                string    `bson:"_id"`
	UserID            string    `bson:"user_id"`
	MemoryType        string    `bson:"memory_type"`
	Tool              string    `bson:"tool,omitempty"`
	Arguments         string    `bson:"arguments,omitempty"`
	ResultSummary     string    `bson:"result_summary,omitempty"`
	Error             string    `bson:"error,omitempty"`
	Success           bool      `bson:"success"`
	QueryContext      string    `bson:"query_context,omitempty"`
	PatternType       string    `bson:"pattern_type,omitempty"`
	SuccessfulPattern string    `bson:"successful_pattern,omitempty"`
	CreatedAt         time.Time `bson:"created_at"`
}

const memoryTypeProcedural = "procedural"

func (r *ProceduralRepo) Append(ctx context.Context, userID string, rec core.ProceduralRecord) error {
	doc := proceduralDoc{
		ID:                uuid.NewString(),
		UserID:            userID,
		MemoryType:        memoryTypeProcedural,
		Tool:              rec.Tool,
		Arguments:         rec.Arguments,
		ResultSummary:     rec.ResultSummary,
		Error:             rec.Error,
		Success:           rec.Success,
		QueryContext:      rec.QueryContext,
		PatternType:       rec.PatternType,
		SuccessfulPattern: rec.SuccessfulPattern,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := r.client.memory().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append procedural record: %w", err)
	}
	return nil
}

func (r *ProceduralRepo) Query(ctx context.Context, userID string, filter core.ProceduralFilter, limit int) ([]core.ProceduralRecord, error) {
	query := bson.M{
		"user_id":     userID,
		"memory_type": memoryTypeProcedural,
	}

	// Filter clauses are OR-combined: any match qualifies the record.
	var clauses []bson.M
	if filter.ContextMatch != "" {
		clauses = append(clauses, bson.M{
			"query_context": bson.M{"$regex": regexQuoteMeta(filter.ContextMatch), "$options": "i"},
		})
	}
	if filter.HasTool {
		clauses = append(clauses, bson.M{"tool": bson.M{"$exists": true, "$ne": ""}})
	}
	if filter.HasPattern {
		clauses = append(clauses, bson.M{"successful_pattern": bson.M{"$exists": true, "$ne": ""}})
	}
	if len(clauses) > 0 {
		query["$or"] = clauses
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.client.memory().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query procedural: %w", err)
	}
	defer cursor.Close(ctx)

	var records []core.ProceduralRecord
	for cursor.Next(ctx) {
		var doc proceduralDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, core.ProceduralRecord{
			ID:                doc.ID,
			UserID:            doc.UserID,
			Tool:              doc.Tool,
			Arguments:         doc.Arguments,
			ResultSummary:     doc.ResultSummary,
			Error:             doc.Error,
			Success:           doc.Success,
			QueryContext:      doc.QueryContext,
			PatternType:       doc.PatternType,
			SuccessfulPattern: doc.SuccessfulPattern,
			CreatedAt:         doc.CreatedAt,
		})
	}
	return records, cursor.Err()
}

// regexQuoteMeta escapes regex metacharacters in user-provided match text.
func regexQuoteMeta(s string) string {
	return regexp.QuoteMeta(s)
}
