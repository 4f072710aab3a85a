package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/core"
)

type stubSemantic struct {
	facts  []core.ScoredFact
	stored []core.SemanticFact
	err    error
}

func (s *stubSemantic) Store(_ context.Context, _ string, fact core.SemanticFact) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.stored = append(s.stored, fact)
	return "fact-1", nil
}

func (s *stubSemantic) QuerySimilar(_ context.Context, _, _ string, _ int) ([]core.ScoredFact, error) {
	return s.facts, s.err
}

func (s *stubSemantic) Delete(_ context.Context, _ string) error { return s.err }

type stubEpisodic struct {
	records []core.EpisodicRecord
	err     error
}

func (s *stubEpisodic) CreateConversation(_ context.Context, _ string) (string, error) {
	return "conv-1", s.err
}

func (s *stubEpisodic) AppendMessage(_ context.Context, _, _ string, _ core.Message) error {
	return s.err
}

func (s *stubEpisodic) Query(_ context.Context, _ string, _ core.EpisodicFilter, _ int) ([]core.EpisodicRecord, error) {
	return s.records, s.err
}

func (s *stubEpisodic) Conversation(_ context.Context, _ string) (*core.Conversation, error) {
	return nil, s.err
}

func (s *stubEpisodic) UserConversations(_ context.Context, _ string, _ int) ([]core.Conversation, error) {
	return nil, s.err
}

func (s *stubEpisodic) DeleteConversation(_ context.Context, _ string) error { return s.err }

type stubProcedural struct {
	records  []core.ProceduralRecord
	appended []core.ProceduralRecord
	err      error
}

func (s *stubProcedural) Append(_ context.Context, _ string, rec core.ProceduralRecord) error {
	if s.err != nil {
		return s.err
	}
	s.appended = append(s.appended, rec)
	return nil
}

func (s *stubProcedural) Query(_ context.Context, _ string, _ core.ProceduralFilter, _ int) ([]core.ProceduralRecord, error) {
	return s.records, s.err
}

func TestBuildContextSentinelWhenAllTiersEmpty(t *testing.T) {
	asm := NewAssembler(&stubSemantic{}, &stubEpisodic{}, &stubProcedural{})

	got := asm.BuildContext(context.Background(), "u1", "anything")

	assert.Equal(t, NoRelevantMemory, got)
}

func TestBuildContextNarrativeSections(t *testing.T) {
	semantic := &stubSemantic{facts: []core.ScoredFact{
		{Fact: core.SemanticFact{Fact: "User lives in Berlin"}, Score: 0.91},
	}}
	episodic := &stubEpisodic{records: []core.EpisodicRecord{
		{Message: core.Message{Role: core.RoleUser, Content: "I moved to Berlin last year"}},
	}}
	procedural := &stubProcedural{records: []core.ProceduralRecord{
		{Tool: "web_search", Arguments: `{"query":"Berlin weather"}`, Success: true},
		{SuccessfulPattern: "Successfully handled query 'weather...' with: tool_assisted_web_search", Success: true},
	}}

	asm := NewAssembler(semantic, episodic, procedural)
	got := asm.BuildContext(context.Background(), "u1", "where do I live?")

	assert.True(t, strings.HasPrefix(got, "Relevant information from memory:"))
	assert.Contains(t, got, "- Fact: User lives in Berlin (relevance: 0.91)")
	assert.Contains(t, got, "- Past interaction: I moved to Berlin last year")
	assert.Contains(t, got, "Learned patterns and tool usage:")
	assert.Contains(t, got, `- For similar queries, successfully used web_search with args: {"query":"Berlin weather"}`)
	assert.Contains(t, got, "- Successful approach: Successfully handled query 'weather...'")
}

func TestBuildContextFailingTierDegrades(t *testing.T) {
	semantic := &stubSemantic{err: errors.New("vector store down")}
	episodic := &stubEpisodic{records: []core.EpisodicRecord{
		{Message: core.Message{Role: core.RoleUser, Content: "hello from the past"}},
	}}

	asm := NewAssembler(semantic, episodic, &stubProcedural{})
	got := asm.BuildContext(context.Background(), "u1", "hello")

	require.NotEqual(t, NoRelevantMemory, got)
	assert.Contains(t, got, "- Past interaction: hello from the past")
	assert.NotContains(t, got, "- Fact:")
}

func TestBuildContextAllTiersFailIsSentinel(t *testing.T) {
	boom := errors.New("down")
	asm := NewAssembler(&stubSemantic{err: boom}, &stubEpisodic{err: boom}, &stubProcedural{err: boom})

	got := asm.BuildContext(context.Background(), "u1", "hello")

	assert.Equal(t, NoRelevantMemory, got)
}
