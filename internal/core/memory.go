package core

import (
	"context"
	"time"
)

// FactCategory classifies a semantic fact.
type FactCategory string

const (
	FactPersonalAttribute   FactCategory = "personal_attribute"
	FactDomainKnowledge     FactCategory = "domain_knowledge"
	FactConceptualKnowledge FactCategory = "conceptual_knowledge"
	FactRelationalKnowledge FactCategory = "relational_knowledge"
	FactPreference          FactCategory = "preference"
)

// FactSource describes how a fact was obtained from the conversation.
type FactSource string

const (
	SourceExplicit FactSource = "explicit"
	SourceImplicit FactSource = "implicit"
	SourceInferred FactSource = "inferred"
)

// SemanticFact is durable knowledge distilled from conversation. Facts are
// immutable; the only removal path is an explicit SemanticStore.Delete.
type SemanticFact struct {
	Fact             string       `json:"fact"`
	Category         FactCategory `json:"category"`
	Confidence       float64      `json:"confidence"`
	SourceType       FactSource   `json:"source_type"`
	Entities         []string     `json:"entities,omitempty"`
	ExtractedAt      time.Time    `json:"extracted_at"`
	ExtractionMethod string       `json:"extraction_method,omitempty"`
}

// ScoredFact is a semantic fact paired with its similarity score.
type ScoredFact struct {
	ID    string
	Fact  SemanticFact
	Score float64
}

// EpisodicRecord is one logged conversation event. Append-only.
type EpisodicRecord struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Message        Message   `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is the durable, possibly multi-session thread for a user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// ProceduralRecord logs one tool-usage outcome or one successful turn
// pattern. Append-only; used as a learning signal for future tool selection.
type ProceduralRecord struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Tool              string    `json:"tool,omitempty"`
	Arguments         string    `json:"arguments,omitempty"`
	ResultSummary     string    `json:"result_summary,omitempty"`
	Error             string    `json:"error,omitempty"`
	Success           bool      `json:"success"`
	QueryContext      string    `json:"query_context,omitempty"`
	PatternType       string    `json:"pattern_type,omitempty"`
	SuccessfulPattern string    `json:"successful_pattern,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// EpisodicFilter selects episodic records whose message content contains
// ContentMatch (case-insensitive). Zero value matches everything.
type EpisodicFilter struct {
	ContentMatch   string
	ConversationID string
}

// ProceduralFilter selects procedural records. The fields are OR-combined:
// a record matches when its query context contains ContextMatch, or it
// carries a tool name (HasTool), or a successful pattern (HasPattern).
type ProceduralFilter struct {
	ContextMatch string
	HasTool      bool
	HasPattern   bool
}

// SemanticStore is vector similarity over fact statements, scoped per user.
type SemanticStore interface {
	Store(ctx context.Context, userID string, fact SemanticFact) (string, error)
	QuerySimilar(ctx context.Context, userID, query string, k int) ([]ScoredFact, error)
	// Delete is the only way a stored fact leaves the store.
	Delete(ctx context.Context, id string) error
}

// EpisodicStore is the append-only event log of conversations per user.
type EpisodicStore interface {
	CreateConversation(ctx context.Context, userID string) (string, error)
	AppendMessage(ctx context.Context, userID, conversationID string, msg Message) error
	Query(ctx context.Context, userID string, filter EpisodicFilter, limit int) ([]EpisodicRecord, error)
	Conversation(ctx context.Context, conversationID string) (*Conversation, error)
	UserConversations(ctx context.Context, userID string, limit int) ([]Conversation, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

// ProceduralStore is the append-only tool-usage / pattern log per user.
type ProceduralStore interface {
	Append(ctx context.Context, userID string, rec ProceduralRecord) error
	Query(ctx context.Context, userID string, filter ProceduralFilter, limit int) ([]ProceduralRecord, error)
}
