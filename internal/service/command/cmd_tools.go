package command

import (
	"context"
	"fmt"

	"github.com/recall-agent/recall/internal/core"
)

// ToolsCommand lists every tool the agent can call, native and external.
type ToolsCommand struct {
	tools     core.ToolExecutor
	formatter *ResponseFormatter
}

func NewToolsCommand(tools core.ToolExecutor) *ToolsCommand {
	return &ToolsCommand{
		tools:     tools,
		formatter: NewResponseFormatter(),
	}
}

func (c *ToolsCommand) Name() string {
	return "tools"
}

func (c *ToolsCommand) Description() string {
	return "List available tools"
}

func (c *ToolsCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	specs, err := c.tools.Specs(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list tools: %w", err)
	}
	if len(specs) == 0 {
		return "No tools available.", nil
	}

	items := make([]string, 0, len(specs))
	for _, spec := range specs {
		items = append(items, fmt.Sprintf("%s: %s", spec.Function.Name, spec.Function.Description))
	}
	return c.formatter.Combine(
		c.formatter.Title("Available tools"),
		c.formatter.List(items),
	), nil
}
