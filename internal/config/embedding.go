package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/recall-agent/recall/pkg/log"
)

type EmbeddingConfig struct {
	Model      string `env:"RECALL_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dimensions int    `env:"RECALL_EMBEDDING_DIMENSIONS" envDefault:"512"`
	BaseURL    string `env:"RECALL_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com"`
	APIKey     string `env:"OPENAI_API_KEY"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
