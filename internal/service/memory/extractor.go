package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

const (
	minFactConfidence = 0.3
	minFactLength     = 10
	extractionMethod  = "llm_cognitive_principles"
)

// conversationIndicators mark deictic, conversation-bound statements that
// must not enter long-term semantic memory.
var conversationIndicators = []string{
	"in this conversation", "just now", "earlier today",
	"you mentioned", "as we discussed", "right now",
}

// Extractor distills durable facts from a slice of conversation messages
// with a low-temperature LLM call and stores the survivors. Every failure
// path degrades to "no facts extracted"; extraction never breaks a turn.
type Extractor struct {
	ai       core.AIProvider
	semantic core.SemanticStore
}

func NewExtractor(ai core.AIProvider, semantic core.SemanticStore) *Extractor {
	return &Extractor{ai: ai, semantic: semantic}
}

func (e *Extractor) ExtractAndStore(ctx context.Context, userID string, conversation []core.Message) int {
	logger := log.FromCtx(ctx)

	raw, err := e.ai.Extract(ctx, buildExtractionPrompt(conversation))
	if err != nil {
		logger.Warn().Err(err).Msg("fact extraction call failed")
		return 0
	}

	facts, err := parseExtractionResponse(raw)
	if err != nil {
		logger.Warn().Err(err).Msg("fact extraction response unparseable")
		return 0
	}

	stored := 0
	for _, f := range facts {
		if !validFact(f) {
			logger.Debug().Str("fact", f.Fact).Msg("rejected extracted fact")
			continue
		}

		f.ExtractionMethod = extractionMethod
		if _, err := e.semantic.Store(ctx, userID, f); err != nil {
			logger.Warn().Err(err).Str("fact", f.Fact).Msg("failed to store fact")
			continue
		}
		logger.Info().Str("category", string(f.Category)).Msg("semantic fact stored")
		stored++
	}
	return stored
}

func parseExtractionResponse(content string) ([]core.SemanticFact, error) {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var facts []core.SemanticFact
	if err := json.Unmarshal([]byte(jsonStr), &facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}
	return facts, nil
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}

	return content[start : start+end+1]
}

func validFact(f core.SemanticFact) bool {
	text := strings.TrimSpace(f.Fact)
	if utf8.RuneCountInString(text) < minFactLength {
		return false
	}
	if f.Category == "" {
		return false
	}
	if f.Confidence < minFactConfidence {
		return false
	}

	lower := strings.ToLower(text)
	for _, indicator := range conversationIndicators {
		if strings.Contains(lower, indicator) {
			return false
		}
	}
	return true
}
