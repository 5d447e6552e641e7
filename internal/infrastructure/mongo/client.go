package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client wraps the Mongo driver client for one database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// NewClient connects to MongoDB and pings it before returning. The caller
// treats a connect failure as "remote store not configured" rather than a
// fatal condition.
func NewClient(uri, database string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Client{
		client: client,
		db:     client.Database(database),
		logger: logger,
	}, nil
}

// Collection returns a handle on a named collection.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
