package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recall-agent/recall/internal/core"
)

func TestBufferAddAndTokenCount(t *testing.T) {
	buf := NewBuffer(4000, HeuristicEstimator{})

	buf.Add(core.Message{Role: core.RoleUser, Content: "12345678"}) // 2 tokens
	buf.Add(core.Message{Role: core.RoleAssistant, Content: "1234"}) // 1 token

	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, 3, buf.TokenCount())
}

func TestBufferEvictsOldestOverLimit(t *testing.T) {
	// Limit of 10 tokens; each message is 5 tokens (20 chars).
	buf := NewBuffer(10, HeuristicEstimator{})
	content := strings.Repeat("x", 20)

	buf.Add(core.Message{Role: core.RoleUser, Content: "first " + content[6:]})
	buf.Add(core.Message{Role: core.RoleUser, Content: "secnd " + content[6:]})
	buf.Add(core.Message{Role: core.RoleUser, Content: "third " + content[6:]})

	msgs := buf.Messages()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "secnd")
	assert.Contains(t, msgs[1].Content, "third")
	assert.LessOrEqual(t, buf.TokenCount(), 10)
}

func TestBufferProtectsLeadingSystemMessage(t *testing.T) {
	buf := NewBuffer(10, HeuristicEstimator{})
	content := strings.Repeat("x", 20)

	buf.Add(core.Message{Role: core.RoleSystem, Content: "sys " + content[4:]})
	buf.Add(core.Message{Role: core.RoleUser, Content: "old " + content[4:]})
	buf.Add(core.Message{Role: core.RoleUser, Content: "new " + content[4:]})

	msgs := buf.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "new")
}

func TestBufferNeverEvictsLastMessage(t *testing.T) {
	buf := NewBuffer(1, HeuristicEstimator{})

	buf.Add(core.Message{Role: core.RoleUser, Content: strings.Repeat("x", 100)})

	assert.Equal(t, 1, buf.Len())
}

func TestBufferClear(t *testing.T) {
	buf := NewBuffer(4000, HeuristicEstimator{})
	buf.Add(core.Message{Role: core.RoleUser, Content: "hello there"})

	buf.Clear()

	assert.Equal(t, 0, buf.Len())
	assert.Equal(t, 0, buf.TokenCount())
}

func TestSessionsGetAndClear(t *testing.T) {
	sessions := NewSessions(4000, HeuristicEstimator{})

	a := sessions.Get("s1")
	a.Add(core.Message{Role: core.RoleUser, Content: "hello"})

	// Same session returns the same buffer.
	assert.Equal(t, 1, sessions.Get("s1").Len())
	// Other sessions are isolated.
	assert.Equal(t, 0, sessions.Get("s2").Len())

	sessions.Clear("s1")
	assert.Equal(t, 0, sessions.Get("s1").Len())
}
