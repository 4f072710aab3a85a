package agent

import (
	"context"
	"fmt"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

const maxToolResultLen = 2000

// executeCalls runs every tool call the model requested. A failing call
// becomes an error-text tool result so the model can recover; each outcome
// is recorded as procedural memory against the originating user query.
func (a *Agent) executeCalls(ctx context.Context, userID, query string, calls []core.ToolCall) ([]core.Message, []string) {
	logger := log.FromCtx(ctx)

	var results []core.Message
	var used []string
	for _, tc := range calls {
		name := tc.Function.Name
		args := tc.Function.Arguments

		out, err := a.deps.Tools.Execute(ctx, name, args)
		if err != nil {
			logger.Warn().Err(err).Str("tool", name).Msg("tool execution failed")
			if a.deps.Recorder != nil {
				a.deps.Recorder.RecordToolFailure(ctx, userID, name, args, err, query)
			}
			out = fmt.Sprintf("Error executing tool: %v", err)
		} else {
			if a.deps.Recorder != nil {
				a.deps.Recorder.RecordToolSuccess(ctx, userID, name, args, out, query)
			}
			used = append(used, name)
		}

		results = append(results, core.Message{
			Role:       core.RoleTool,
			Content:    truncateResult(out),
			ToolName:   name,
			ToolCallID: tc.ID,
		})
	}
	return results, used
}

// truncateResult keeps the head and tail of oversized tool output so the
// model still sees how the result starts and ends.
func truncateResult(input string) string {
	if len(input) <= maxToolResultLen {
		return input
	}

	head := input[:500]
	tail := input[len(input)-(maxToolResultLen-500):]
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d bytes] ...\n\n%s", head, len(input)-maxToolResultLen, tail)
}
