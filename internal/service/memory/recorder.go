package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

const (
	resultSummaryLimit = 100
	patternQueryLimit  = 50

	PatternDirectResponse = "direct_response"
)

// Recorder writes procedural memory: per-tool-call outcomes and per-turn
// success patterns. Recording failures are logged and swallowed; the learning
// signal is best-effort.
type Recorder struct {
	procedural core.ProceduralStore
}

func NewRecorder(procedural core.ProceduralStore) *Recorder {
	return &Recorder{procedural: procedural}
}

func (r *Recorder) RecordToolSuccess(ctx context.Context, userID, tool, arguments, result, queryContext string) {
	rec := core.ProceduralRecord{
		Tool:          tool,
		Arguments:     arguments,
		ResultSummary: truncate(result, resultSummaryLimit),
		QueryContext:  queryContext,
		Success:       true,
	}
	if err := r.procedural.Append(ctx, userID, rec); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("tool", tool).Msg("failed to record tool success")
	}
}

func (r *Recorder) RecordToolFailure(ctx context.Context, userID, tool, arguments string, toolErr error, queryContext string) {
	rec := core.ProceduralRecord{
		Tool:         tool,
		Arguments:    arguments,
		Error:        toolErr.Error(),
		QueryContext: queryContext,
		Success:      false,
	}
	if err := r.procedural.Append(ctx, userID, rec); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("tool", tool).Msg("failed to record tool failure")
	}
}

// RecordTurnPattern logs the shape of a successfully completed turn:
// "direct_response" when no tools ran, otherwise a composite label joining
// the tool names used.
func (r *Recorder) RecordTurnPattern(ctx context.Context, userID, userMessage string, toolsUsed []string) {
	patternType := PatternDirectResponse
	if len(toolsUsed) > 0 {
		patternType = "tool_assisted_" + strings.Join(toolsUsed, "+")
	}

	rec := core.ProceduralRecord{
		PatternType:       patternType,
		SuccessfulPattern: fmt.Sprintf("Successfully handled query '%s...' with: %s", truncateRunes(userMessage, patternQueryLimit), patternType),
		QueryContext:      userMessage,
		Success:           true,
	}
	if err := r.procedural.Append(ctx, userID, rec); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to record turn pattern")
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
