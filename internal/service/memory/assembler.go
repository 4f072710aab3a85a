package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// NoRelevantMemory is returned when all three long-term tiers come back
// empty. Callers omit the context block instead of treating it as an error.
const NoRelevantMemory = "No relevant information found in memory."

const (
	semanticTopK       = 3
	episodicLimit      = 3
	proceduralLimit    = 5
	contextMatchPrefix = 50
)

// Assembler queries the three long-term tiers for a user message and folds
// the results into one narrative context block. Each tier fails open: an
// erroring tier contributes nothing and never aborts the others.
type Assembler struct {
	semantic   core.SemanticStore
	episodic   core.EpisodicStore
	procedural core.ProceduralStore
}

func NewAssembler(semantic core.SemanticStore, episodic core.EpisodicStore, procedural core.ProceduralStore) *Assembler {
	return &Assembler{
		semantic:   semantic,
		episodic:   episodic,
		procedural: procedural,
	}
}

func (a *Assembler) BuildContext(ctx context.Context, userID, query string) string {
	logger := log.FromCtx(ctx)

	facts, err := a.semantic.QuerySimilar(ctx, userID, query, semanticTopK)
	if err != nil {
		logger.Warn().Err(err).Msg("semantic tier query failed")
		facts = nil
	}

	episodes, err := a.episodic.Query(ctx, userID, core.EpisodicFilter{ContentMatch: query}, episodicLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("episodic tier query failed")
		episodes = nil
	}

	contextMatch := query
	if len(contextMatch) > contextMatchPrefix {
		contextMatch = contextMatch[:contextMatchPrefix]
	}
	procedures, err := a.procedural.Query(ctx, userID, core.ProceduralFilter{
		ContextMatch: contextMatch,
		HasTool:      true,
		HasPattern:   true,
	}, proceduralLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("procedural tier query failed")
		procedures = nil
	}

	if len(facts) == 0 && len(episodes) == 0 && len(procedures) == 0 {
		return NoRelevantMemory
	}

	var b strings.Builder
	b.WriteString("Relevant information from memory:\n")

	for _, f := range facts {
		fmt.Fprintf(&b, "- Fact: %s (relevance: %.2f)\n", f.Fact.Fact, f.Score)
	}

	for _, e := range episodes {
		fmt.Fprintf(&b, "- Past interaction: %s\n", e.Message.Content)
	}

	if len(procedures) > 0 {
		b.WriteString("\nLearned patterns and tool usage:\n")
		for _, p := range procedures {
			switch {
			case p.Tool != "":
				fmt.Fprintf(&b, "- For similar queries, successfully used %s with args: %s\n", p.Tool, p.Arguments)
			case p.SuccessfulPattern != "":
				fmt.Fprintf(&b, "- Successful approach: %s\n", p.SuccessfulPattern)
			}
		}
	}

	return strings.TrimSpace(b.String())
}
