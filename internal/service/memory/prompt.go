package memory

import (
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
)

const extractionSystemPrompt = `You are an expert cognitive scientist specializing in semantic memory extraction.
Your task is to extract factual knowledge from conversations that should be stored in long-term semantic memory.

COGNITIVE PRINCIPLES FOR SEMANTIC MEMORY:
1. Declarative Facts: explicit factual statements that can be recalled independently
2. Conceptual Knowledge: definitions, categories, and conceptual relationships
3. Personal Attributes: stable traits, preferences, and characteristics revealed
4. Domain Knowledge: subject-matter expertise and domain-specific information
5. Relational Knowledge: relationships between entities, people, concepts

EXTRACTION CRITERIA:
- Extract facts that are GENERALIZABLE beyond this specific conversation
- Focus on STABLE information that won't change rapidly
- Identify IMPLICIT knowledge revealed through conversation patterns
- Avoid conversation-specific details (those belong in episodic memory)
- Extract knowledge that could inform FUTURE interactions

OUTPUT FORMAT: Return a JSON array of fact objects, each with:
{
	"fact": "The factual statement in clear, declarative form",
	"category": "personal_attribute|domain_knowledge|conceptual_knowledge|relational_knowledge|preference",
	"confidence": 0.0-1.0,
	"source_type": "explicit|implicit|inferred",
	"entities": ["list", "of", "key", "entities"]
}

If no significant semantic facts are found, return an empty array [].`

func buildExtractionPrompt(conversation []core.Message) string {
	var b strings.Builder
	for _, m := range conversation {
		if m.Role == core.RoleTool || m.Role == core.RoleSystem {
			continue
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}

	return fmt.Sprintf("%s\n\nCONVERSATION TO ANALYZE:\n\n%s\nExtract semantic facts that should be stored in long-term memory according to cognitive principles.",
		extractionSystemPrompt, b.String())
}
