package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/recall-agent/recall/internal/config"
	"github.com/recall-agent/recall/pkg/log"
)

const disconnectTimeout = 5 * time.Second

// Client wraps the mongo connection used by the episodic and procedural tiers.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    *config.MongoConfig
}

func NewClient(ctx context.Context, cfg *config.MongoConfig) (*Client, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.FromCtx(ctx).Info().Str("database", cfg.Database).Msg("connected to mongodb")

	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, disconnectTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *Client) conversations() *mongo.Collection {
	return c.db.Collection(c.cfg.ConversationCollection)
}

func (c *Client) memory() *mongo.Collection {
	return c.db.Collection(c.cfg.MemoryCollection)
}
