package core

import "context"

// AIProvider is the narrow contract the agent consumes from a language model.
type AIProvider interface {
	// Chat runs one reasoning step over the full history with tool-call
	// capability enabled. The reply may carry zero or more tool calls.
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
	// Extract runs the low-temperature extraction mode: a single prompt in,
	// raw model text (expected to contain a JSON array) out.
	Extract(ctx context.Context, prompt string) (string, error)
}

// Embedder converts text into a vector for the semantic store.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ToolExecutor resolves and runs tool calls against the registry.
type ToolExecutor interface {
	Specs(ctx context.Context) ([]Tool, error)
	Execute(ctx context.Context, name string, args string) (string, error)
}
