package llm

import (
	"context"
	"fmt"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, app *config.AppConfig, creds *config.LLMConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", app.Provider).
		Str("model", app.Model).
		Msg("starting llm provider")

	switch app.Provider {
	case "openai":
		return NewOpenAI(creds.OpenAIAPIKey, app.Model), nil
	case "anthropic":
		return NewAnthropic(creds.AnthropicAPIKey, app.Model), nil
	case "openrouter":
		return NewOpenRouter(creds.OpenRouterAPIKey, app.Model), nil
	case "ollama":
		return NewOllama(creds.OllamaBaseURL, creds.OllamaAPIKey, app.Model), nil
	case "custom":
		return NewCustomOpenAI(creds.CustomBaseURL, creds.CustomAPIKey, app.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", app.Provider)
	}
}
