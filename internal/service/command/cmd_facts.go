package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/recall-agent/recall/internal/core"
)

const factsTopK = 5

// FactsCommand searches the semantic memory of the local user.
type FactsCommand struct {
	semantic  core.SemanticStore
	userID    string
	formatter *ResponseFormatter
}

func NewFactsCommand(semantic core.SemanticStore, userID string) *FactsCommand {
	return &FactsCommand{
		semantic:  semantic,
		userID:    userID,
		formatter: NewResponseFormatter(),
	}
}

func (c *FactsCommand) Name() string {
	return "facts"
}

func (c *FactsCommand) Description() string {
	return "Search stored facts about you"
}

func (c *FactsCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Usage("/facts <query>"), nil
	}

	query := strings.Join(args, " ")
	facts, err := c.semantic.QuerySimilar(ctx, c.userID, query, factsTopK)
	if err != nil {
		return "", fmt.Errorf("failed to query facts: %w", err)
	}
	if len(facts) == 0 {
		return "No stored facts match that query.", nil
	}

	items := make([]string, 0, len(facts))
	for _, f := range facts {
		items = append(items, fmt.Sprintf("[%s] %s (%.2f, id %s)", f.Fact.Category, f.Fact.Fact, f.Score, f.ID))
	}
	return c.formatter.Combine(
		c.formatter.Title("Matching facts"),
		c.formatter.List(items),
	), nil
}

// ForgetCommand deletes one stored fact by id. This is the only way a fact
// leaves semantic memory.
type ForgetCommand struct {
	semantic  core.SemanticStore
	formatter *ResponseFormatter
}

func NewForgetCommand(semantic core.SemanticStore) *ForgetCommand {
	return &ForgetCommand{
		semantic:  semantic,
		formatter: NewResponseFormatter(),
	}
}

func (c *ForgetCommand) Name() string {
	return "forget"
}

func (c *ForgetCommand) Description() string {
	return "Delete a stored fact by id"
}

func (c *ForgetCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) != 1 {
		return c.formatter.Usage("/forget <fact-id>"), nil
	}

	if err := c.semantic.Delete(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to delete fact: %w", err)
	}
	return fmt.Sprintf("Fact %s deleted.", args[0]), nil
}
