package command

import (
	"github.com/recall-agent/recall/internal/core"
)

func NewCommands(
	semantic core.SemanticStore,
	episodic core.EpisodicStore,
	tools core.ToolExecutor,
	userID string,
) []Command {
	return []Command{
		NewFactsCommand(semantic, userID),
		NewForgetCommand(semantic),
		NewHistoryCommand(episodic, userID),
		NewToolsCommand(tools),
	}
}
