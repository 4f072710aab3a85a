package command

import (
	"context"
	"fmt"

	"github.com/recall-agent/recall/internal/core"
)

const historyLimit = 10

// HistoryCommand lists the local user's recent conversations from episodic
// memory.
type HistoryCommand struct {
	episodic  core.EpisodicStore
	userID    string
	formatter *ResponseFormatter
}

func NewHistoryCommand(episodic core.EpisodicStore, userID string) *HistoryCommand {
	return &HistoryCommand{
		episodic:  episodic,
		userID:    userID,
		formatter: NewResponseFormatter(),
	}
}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "List recent conversations"
}

func (c *HistoryCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	conversations, err := c.episodic.UserConversations(ctx, c.userID, historyLimit)
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(conversations) == 0 {
		return "No conversations yet.", nil
	}

	items := make([]string, 0, len(conversations))
	for _, conv := range conversations {
		items = append(items, fmt.Sprintf("%s  last active %s", conv.ID, conv.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return c.formatter.Combine(
		c.formatter.Title("Recent conversations"),
		c.formatter.List(items),
	), nil
}
