package mongodb

import (
	"context"
	"fmt"
	"time"

	logger "github.com/omniful/go_commons/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

// MongoDB client configuration
type Config struct {
	URI                    string
	Database               string
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

// Client wraps the driver client and the application database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	config Config
}

// NewClient connects to MongoDB. A failed ping is logged, not returned, so
// the API can start and report mongo=false on /health.
func NewClient(ctx context.Context, config Config) (*Client, error) {
	logger.Info(fmt.Sprintf("Connecting to MongoDB database %s", config.Database))

	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetServerSelectionTimeout(config.ServerSelectionTimeout).
		SetMaxPoolSize(config.MaxPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		logger.Error("MongoDB ping failed: " + err.Error())
	} else {
		logger.Info("MongoDB connection successful")
	}

	return &Client{
		client: client,
		db:     client.Database(config.Database),
		config: config,
	}, nil
}

// Ping reports whether the server answers.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx, readpref.Primary()) == nil
}

// Collection returns a handle to the named collection.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// Database returns the application database.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// CreateIndexes creates the lookup indexes used by the repositories. None of
// them are unique on the business key: re-imports rely on the key diff.
func (c *Client) CreateIndexes(ctx context.Context) error {
	rowIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "importDate", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isHeader", Value: 1}}},
	}
	rowCollections := []string{
		constants.CollectionPedidos,
		constants.CollectionPedidosComStatus,
		constants.CollectionSLA,
		constants.CollectionEntradaGalpao,
		constants.CollectionListaTelefones,
	}
	for _, name := range rowCollections {
		if _, err := c.Collection(name).Indexes().CreateMany(ctx, rowIndexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	deliveryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "Número de pedido JMS", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "importDate", Value: 1}}},
	}
	for _, name := range []string{constants.CollectionMotorista, constants.CollectionBase} {
		if _, err := c.Collection(name).Indexes().CreateMany(ctx, deliveryIndexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}

	userIndex := mongo.IndexModel{Keys: bson.D{{Key: "nome", Value: 1}}}
	if _, err := c.Collection(constants.CollectionUsuarios).Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", constants.CollectionUsuarios, err)
	}

	logger.Info("MongoDB indexes created successfully")
	return nil
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
