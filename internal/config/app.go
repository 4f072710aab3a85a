package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/recall-agent/recall/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"RECALL_RUNTIME_PATH" envDefault:".recall"`

	// Identity the CLI transport acts as
	UserID string `env:"RECALL_USER_ID" envDefault:"local"`

	// LLM provider selection
	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	// Storage backend for the long-term tiers: "sqlite" or "mongo"
	// (semantic always stays local; "chromem" selects the pure-Go vector store).
	StorageBackend  string `env:"RECALL_STORAGE" envDefault:"sqlite"`
	SemanticBackend string `env:"RECALL_SEMANTIC_STORE" envDefault:"sqlite"`

	// Short-term buffer
	BufferTokenLimit int  `env:"RECALL_BUFFER_TOKEN_LIMIT" envDefault:"4000"`
	UseTiktoken      bool `env:"RECALL_USE_TIKTOKEN" envDefault:"false"`

	// Orchestration
	ExtractionInterval int `env:"RECALL_EXTRACTION_INTERVAL" envDefault:"10"`
	MaxTurnSteps       int `env:"RECALL_MAX_TURN_STEPS" envDefault:"8"`

	// External call budget
	LLMTimeoutSeconds  int `env:"RECALL_LLM_TIMEOUT" envDefault:"120"`
	ToolTimeoutSeconds int `env:"RECALL_TOOL_TIMEOUT" envDefault:"60"`
}

// GetRuntimePath reads the runtime directory straight from the environment,
// for use before the full config is parsed (the .env file lives there).
func GetRuntimePath() string {
	if p := os.Getenv("RECALL_RUNTIME_PATH"); p != "" {
		return p
	}
	return ".recall"
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetSystemPromptPath() string {
	return filepath.Join(c.RuntimePath, "SYSTEM.md")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "recall.db")
}

func (c AppConfig) GetMCPConfigPath() string {
	return filepath.Join(c.RuntimePath, "mcp_config.json")
}
