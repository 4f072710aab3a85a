package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/internal/service/memory"
)

type scriptedAI struct {
	replies  []core.Message
	chatErr  error
	chats    int
	extracts []string
}

func (s *scriptedAI) Chat(_ context.Context, _ []core.Message, _ []core.Tool) (core.Message, error) {
	if s.chatErr != nil {
		return core.Message{}, s.chatErr
	}
	idx := s.chats
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	s.chats++
	return s.replies[idx], nil
}

func (s *scriptedAI) Extract(_ context.Context, prompt string) (string, error) {
	s.extracts = append(s.extracts, prompt)
	return "[]", nil
}

type stubExecutor struct {
	result   string
	err      error
	executed []string
}

func (s *stubExecutor) Specs(_ context.Context) ([]core.Tool, error) {
	return []core.Tool{{Type: "function", Function: core.Function{
		Name:        "internet_search",
		Description: "Search the web for current information",
	}}}, nil
}

func (s *stubExecutor) Execute(_ context.Context, name, _ string) (string, error) {
	s.executed = append(s.executed, name)
	return s.result, s.err
}

type stubEpisodic struct {
	appended []core.Message
}

func (s *stubEpisodic) CreateConversation(_ context.Context, _ string) (string, error) {
	return "conv-1", nil
}

func (s *stubEpisodic) AppendMessage(_ context.Context, _, _ string, msg core.Message) error {
	s.appended = append(s.appended, msg)
	return nil
}

func (s *stubEpisodic) Query(_ context.Context, _ string, _ core.EpisodicFilter, _ int) ([]core.EpisodicRecord, error) {
	return nil, nil
}

func (s *stubEpisodic) Conversation(_ context.Context, _ string) (*core.Conversation, error) {
	return nil, errors.New("not found")
}

func (s *stubEpisodic) UserConversations(_ context.Context, _ string, _ int) ([]core.Conversation, error) {
	return nil, nil
}

func (s *stubEpisodic) DeleteConversation(_ context.Context, _ string) error {
	return nil
}

type stubSemantic struct {
	stored []core.SemanticFact
	facts  []core.ScoredFact
}

func (s *stubSemantic) Store(_ context.Context, _ string, fact core.SemanticFact) (string, error) {
	s.stored = append(s.stored, fact)
	return "1", nil
}

func (s *stubSemantic) QuerySimilar(_ context.Context, _, _ string, _ int) ([]core.ScoredFact, error) {
	return s.facts, nil
}

func (s *stubSemantic) Delete(_ context.Context, _ string) error {
	return nil
}

type stubProcedural struct {
	records []core.ProceduralRecord
}

func (s *stubProcedural) Append(_ context.Context, _ string, rec core.ProceduralRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubProcedural) Query(_ context.Context, _ string, _ core.ProceduralFilter, _ int) ([]core.ProceduralRecord, error) {
	return nil, nil
}

type fixture struct {
	agent      *Agent
	ai         *scriptedAI
	executor   *stubExecutor
	episodic   *stubEpisodic
	semantic   *stubSemantic
	procedural *stubProcedural
	sessions   *memory.Sessions
}

func newFixture(t *testing.T, ai *scriptedAI, executor *stubExecutor, cfg *config.AppConfig) *fixture {
	t.Helper()

	if cfg == nil {
		cfg = &config.AppConfig{
			MaxTurnSteps:       8,
			ExtractionInterval: 10,
			LLMTimeoutSeconds:  5,
		}
	}

	episodic := &stubEpisodic{}
	semantic := &stubSemantic{}
	procedural := &stubProcedural{}
	sessions := memory.NewSessions(memory.DefaultTokenLimit, memory.HeuristicEstimator{})

	a := New(cfg, Deps{
		AI:        ai,
		Tools:     executor,
		Sessions:  sessions,
		Assembler: memory.NewAssembler(semantic, episodic, procedural),
		Extractor: memory.NewExtractor(ai, semantic),
		Recorder:  memory.NewRecorder(procedural),
		Episodic:  episodic,
	}, "You are a helpful assistant.")

	return &fixture{
		agent:      a,
		ai:         ai,
		executor:   executor,
		episodic:   episodic,
		semantic:   semantic,
		procedural: procedural,
		sessions:   sessions,
	}
}

func TestDirectResponse(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "Hello there!"},
	}}
	f := newFixture(t, ai, &stubExecutor{}, nil)

	resp := f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "hi")

	assert.Equal(t, "Hello there!", resp)
	assert.Equal(t, 1, ai.chats)
	assert.Empty(t, f.executor.executed)

	// user and assistant messages both land in episodic memory
	require.Len(t, f.episodic.appended, 2)
	assert.Equal(t, core.RoleUser, f.episodic.appended[0].Role)
	assert.Equal(t, "Hello there!", f.episodic.appended[1].Content)

	// a direct turn records a direct_response pattern
	require.Len(t, f.procedural.records, 1)
	assert.Equal(t, "direct_response", f.procedural.records[0].PatternType)
}

func TestToolAssistedTurn(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: core.FunctionCall{Name: "internet_search", Arguments: `{"query":"weather"}`},
			}},
		},
		{Role: core.RoleAssistant, Content: "It is sunny."},
	}}
	executor := &stubExecutor{result: "Sunny, 22C"}
	f := newFixture(t, ai, executor, nil)

	resp := f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "what's the weather?")

	assert.Equal(t, "It is sunny.", resp)
	assert.Equal(t, 2, ai.chats)
	assert.Equal(t, []string{"internet_search"}, executor.executed)

	// one tool outcome plus one turn pattern
	require.Len(t, f.procedural.records, 2)
	assert.Equal(t, "internet_search", f.procedural.records[0].Tool)
	assert.True(t, f.procedural.records[0].Success)
	assert.Equal(t, "tool_assisted_internet_search", f.procedural.records[1].PatternType)
}

func TestToolFailureRecovers(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: core.FunctionCall{Name: "internet_search", Arguments: `{}`},
			}},
		},
		{Role: core.RoleAssistant, Content: "I couldn't look that up, sorry."},
	}}
	executor := &stubExecutor{err: errors.New("connection refused")}
	f := newFixture(t, ai, executor, nil)

	resp := f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "search something")

	assert.Equal(t, "I couldn't look that up, sorry.", resp)

	// the failure is logged procedurally and the turn is not tool_assisted
	require.Len(t, f.procedural.records, 2)
	assert.False(t, f.procedural.records[0].Success)
	assert.Contains(t, f.procedural.records[0].Error, "connection refused")
	assert.Equal(t, "direct_response", f.procedural.records[1].PatternType)
}

func TestEmptyReplyFallsBack(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: ""},
	}}
	f := newFixture(t, ai, &stubExecutor{}, nil)

	resp := f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "hi")

	assert.Equal(t, FallbackResponse, resp)
	// fallback turns record no pattern
	assert.Empty(t, f.procedural.records)
}

func TestStepCapForcesFallback(t *testing.T) {
	// the model keeps requesting tools forever
	ai := &scriptedAI{replies: []core.Message{
		{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: core.FunctionCall{Name: "internet_search", Arguments: `{}`},
			}},
		},
	}}
	executor := &stubExecutor{result: "noise"}
	cfg := &config.AppConfig{MaxTurnSteps: 3, ExtractionInterval: 10, LLMTimeoutSeconds: 5}
	f := newFixture(t, ai, executor, cfg)

	resp := f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "loop forever")

	assert.Equal(t, FallbackResponse, resp)
	assert.Equal(t, 3, ai.chats)
	assert.Len(t, executor.executed, 3)
}

func TestBufferPersistsAcrossTurns(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "noted"},
	}}
	f := newFixture(t, ai, &stubExecutor{}, nil)

	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "my name is Ada")
	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "what's my name?")

	buf := f.sessions.Get("s1")
	msgs := buf.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "my name is Ada", msgs[0].Content)
	assert.Equal(t, "what's my name?", msgs[2].Content)
}

func TestResetSessionClearsBufferOnly(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "ok"},
	}}
	f := newFixture(t, ai, &stubExecutor{}, nil)

	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "hello")
	require.Equal(t, 2, f.sessions.Get("s1").Len())

	f.agent.ResetSession("s1")
	assert.Equal(t, 0, f.sessions.Get("s1").Len())
	// episodic log survives the reset
	assert.Len(t, f.episodic.appended, 2)

	// resetting again, or an unknown session, is harmless
	f.agent.ResetSession("s1")
	f.agent.ResetSession("never-seen")
}

func TestExtractionTrigger(t *testing.T) {
	ai := &scriptedAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "ok"},
	}}
	cfg := &config.AppConfig{MaxTurnSteps: 8, ExtractionInterval: 4, LLMTimeoutSeconds: 5}
	f := newFixture(t, ai, &stubExecutor{}, cfg)

	ctx := context.Background()

	// 2 turns -> 4 messages: exact multiple but not beyond the interval
	f.agent.ProcessMessage(ctx, "u1", "s1", "c1", "one")
	f.agent.ProcessMessage(ctx, "u1", "s1", "c1", "two")
	assert.Empty(t, ai.extracts)

	// 3 turns -> 6 messages: beyond the interval but not a multiple
	f.agent.ProcessMessage(ctx, "u1", "s1", "c1", "three")
	assert.Empty(t, ai.extracts)

	// 4 turns -> 8 messages: beyond the interval and a multiple
	f.agent.ProcessMessage(ctx, "u1", "s1", "c1", "four")
	require.Len(t, ai.extracts, 1)
	assert.Contains(t, ai.extracts[0], "four")
	assert.NotContains(t, ai.extracts[0], "one")
}

func TestMemoryContextOnFirstThinkOnly(t *testing.T) {
	seen := make([][]core.Message, 0)
	ai := &recordingAI{replies: []core.Message{
		{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: core.FunctionCall{Name: "internet_search", Arguments: `{}`},
			}},
		},
		{Role: core.RoleAssistant, Content: "done"},
	}, seen: &seen}
	f := newFixture(t, &scriptedAI{replies: ai.replies}, &stubExecutor{result: "x"}, nil)
	f.agent.deps.AI = ai
	f.semantic.facts = []core.ScoredFact{
		{ID: "1", Fact: core.SemanticFact{Fact: "User prefers tea"}, Score: 0.91},
	}

	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "look it up")

	require.Len(t, seen, 2)

	// first think: system prompt, memory block, user message
	require.Len(t, seen[0], 3)
	assert.Contains(t, seen[0][1].Content, "Relevant information from memory:")
	assert.Contains(t, seen[0][1].Content, "User prefers tea")

	// second think (after the tool result) does not re-query memory
	require.Len(t, seen[1], 4)
	assert.Equal(t, core.RoleUser, seen[1][1].Role)
}

func TestNoMemoryBlockWhenAllTiersEmpty(t *testing.T) {
	seen := make([][]core.Message, 0)
	ai := &recordingAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "hello"},
	}, seen: &seen}
	f := newFixture(t, &scriptedAI{replies: ai.replies}, &stubExecutor{}, nil)
	f.agent.deps.AI = ai

	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "hi")

	require.Len(t, seen, 1)
	// system prompt then user message, no memory block
	require.Len(t, seen[0], 2)
	assert.Equal(t, core.RoleSystem, seen[0][0].Role)
	assert.Equal(t, core.RoleUser, seen[0][1].Role)
}

func TestSystemPromptListsCurrentTools(t *testing.T) {
	seen := make([][]core.Message, 0)
	ai := &recordingAI{replies: []core.Message{
		{Role: core.RoleAssistant, Content: "hello"},
	}, seen: &seen}
	f := newFixture(t, &scriptedAI{replies: ai.replies}, &stubExecutor{}, nil)
	f.agent.deps.AI = ai
	f.agent.promptTemplate = "You are a helpful assistant.\n\nTools:\n%s"

	f.agent.ProcessMessage(context.Background(), "u1", "s1", "c1", "hi")

	require.Len(t, seen, 1)
	require.NotEmpty(t, seen[0])
	assert.Equal(t, core.RoleSystem, seen[0][0].Role)
	assert.Contains(t, seen[0][0].Content, "- internet_search: Search the web for current information")
}

type recordingAI struct {
	replies []core.Message
	chats   int
	seen    *[][]core.Message
}

func (r *recordingAI) Chat(_ context.Context, history []core.Message, _ []core.Tool) (core.Message, error) {
	snapshot := make([]core.Message, len(history))
	copy(snapshot, history)
	*r.seen = append(*r.seen, snapshot)

	idx := r.chats
	if idx >= len(r.replies) {
		idx = len(r.replies) - 1
	}
	r.chats++
	return r.replies[idx], nil
}

func (r *recordingAI) Extract(_ context.Context, _ string) (string, error) {
	return "[]", nil
}
