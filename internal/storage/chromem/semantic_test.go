package chromem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/core"
)

// stubEmbedder returns a fixed vector per known text.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0.1, 0.1, 0.1}, nil
}

func TestStoreAndQuerySimilar(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"User lives in Berlin":  {1, 0, 0},
		"User likes espresso":   {0, 1, 0},
		"where does user live?": {0.9, 0.1, 0},
	}}
	repo := NewSemanticRepo(embedder)
	ctx := context.Background()

	_, err := repo.Store(ctx, "u1", core.SemanticFact{
		Fact:       "User lives in Berlin",
		Category:   core.FactPersonalAttribute,
		Confidence: 0.9,
		SourceType: core.SourceExplicit,
	})
	require.NoError(t, err)

	_, err = repo.Store(ctx, "u1", core.SemanticFact{
		Fact:       "User likes espresso",
		Category:   core.FactPreference,
		Confidence: 0.8,
		SourceType: core.SourceImplicit,
	})
	require.NoError(t, err)

	results, err := repo.QuerySimilar(ctx, "u1", "where does user live?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "User lives in Berlin", results[0].Fact.Fact)
	assert.Equal(t, core.FactPersonalAttribute, results[0].Fact.Category)
	assert.InDelta(t, 0.9, results[0].Fact.Confidence, 0.001)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryEmptyCollection(t *testing.T) {
	repo := NewSemanticRepo(&stubEmbedder{})

	results, err := repo.QuerySimilar(context.Background(), "nobody", "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUserIsolation(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"User lives in Berlin": {1, 0, 0},
	}}
	repo := NewSemanticRepo(embedder)
	ctx := context.Background()

	_, err := repo.Store(ctx, "u1", core.SemanticFact{Fact: "User lives in Berlin"})
	require.NoError(t, err)

	results, err := repo.QuerySimilar(ctx, "u2", "User lives in Berlin", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteFact(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"User lives in Berlin": {1, 0, 0},
	}}
	repo := NewSemanticRepo(embedder)
	ctx := context.Background()

	id, err := repo.Store(ctx, "u1", core.SemanticFact{Fact: "User lives in Berlin"})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	results, err := repo.QuerySimilar(ctx, "u1", "User lives in Berlin", 1)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Error(t, repo.Delete(ctx, id))
}
