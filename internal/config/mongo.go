package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/recall-agent/recall/pkg/log"
)

// MongoConfig is only parsed when RECALL_STORAGE=mongo.
type MongoConfig struct {
	URI      string `env:"MONGODB_URI,required,notEmpty"`
	Database string `env:"MONGODB_DATABASE" envDefault:"recall"`

	ConversationCollection string `env:"MONGODB_CONVERSATION_COLLECTION" envDefault:"conversations"`
	MemoryCollection       string `env:"MONGODB_MEMORY_COLLECTION" envDefault:"memory"`
}

func NewMongoConfig(ctx context.Context) *MongoConfig {
	c := &MongoConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Mongo config")
	}
	return c
}
