package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// SemanticRepo is a pure-Go in-process vector store for semantic facts,
// backed by chromem-go. Each user gets their own collection.
type SemanticRepo struct {
	db          *chromem.DB
	embedder    core.Embedder
	collections map[string]*chromem.Collection
	owners      map[string]string // fact id -> user id, for Delete
	mu          sync.RWMutex
}

func NewSemanticRepo(embedder core.Embedder) *SemanticRepo {
	return &SemanticRepo{
		db:          chromem.NewDB(),
		embedder:    embedder,
		collections: make(map[string]*chromem.Collection),
		owners:      make(map[string]string),
	}
}

func (r *SemanticRepo) collection(userID string) (*chromem.Collection, error) {
	r.mu.RLock()
	col, ok := r.collections[userID]
	r.mu.RUnlock()
	if ok {
		return col, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if col, ok := r.collections[userID]; ok {
		return col, nil
	}

	col, err := r.db.CreateCollection("user_"+userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	r.collections[userID] = col
	return col, nil
}

func (r *SemanticRepo) Store(ctx context.Context, userID string, fact core.SemanticFact) (string, error) {
	col, err := r.collection(userID)
	if err != nil {
		return "", err
	}

	embedding, err := r.embedder.Embed(ctx, fact.Fact)
	if err != nil {
		return "", fmt.Errorf("embed fact: %w", err)
	}

	entitiesJSON, err := json.Marshal(fact.Entities)
	if err != nil {
		return "", fmt.Errorf("marshal entities: %w", err)
	}

	id := uuid.NewString()
	doc := chromem.Document{
		ID:        id,
		Content:   fact.Fact,
		Embedding: embedding,
		Metadata: map[string]string{
			"user_id":           userID,
			"category":          string(fact.Category),
			"confidence":        strconv.FormatFloat(fact.Confidence, 'f', -1, 64),
			"source_type":       string(fact.SourceType),
			"entities":          string(entitiesJSON),
			"extraction_method": fact.ExtractionMethod,
			"extracted_at":      time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}

	r.mu.Lock()
	r.owners[id] = userID
	r.mu.Unlock()

	log.FromCtx(ctx).Debug().Str("fact_id", id).Msg("stored semantic fact")
	return id, nil
}

func (r *SemanticRepo) QuerySimilar(ctx context.Context, userID, query string, k int) ([]core.ScoredFact, error) {
	col, err := r.collection(userID)
	if err != nil {
		return nil, err
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// chromem rejects nResults larger than the collection size.
	if count := col.Count(); count < k {
		if count == 0 {
			return nil, nil
		}
		k = count
	}

	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	facts := make([]core.ScoredFact, 0, len(results))
	for _, res := range results {
		facts = append(facts, core.ScoredFact{
			ID:    res.ID,
			Fact:  factFromResult(res),
			Score: float64(res.Similarity),
		})
	}
	return facts, nil
}

func (r *SemanticRepo) Delete(ctx context.Context, id string) error {
	r.mu.RLock()
	userID, ok := r.owners[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown fact id %q", id)
	}

	col, err := r.collection(userID)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	r.mu.Lock()
	delete(r.owners, id)
	r.mu.Unlock()
	return nil
}

func factFromResult(res chromem.Result) core.SemanticFact {
	confidence, _ := strconv.ParseFloat(res.Metadata["confidence"], 64)
	extractedAt, _ := time.Parse(time.RFC3339, res.Metadata["extracted_at"])

	var entities []string
	if raw := res.Metadata["entities"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &entities)
	}

	return core.SemanticFact{
		Fact:             strings.TrimSpace(res.Content),
		Category:         core.FactCategory(res.Metadata["category"]),
		Confidence:       confidence,
		SourceType:       core.FactSource(res.Metadata["source_type"]),
		Entities:         entities,
		ExtractedAt:      extractedAt,
		ExtractionMethod: res.Metadata["extraction_method"],
	}
}
