package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
	"github.com/Afonso-Front-End/torre-de-controle/internal/mongodb"
)

// migrate creates the MongoDB indexes without starting the API.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, mongodb.Config{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		logger.Error("Failed to connect to MongoDB: " + err.Error())
		os.Exit(1)
	}
	defer client.Close(context.Background())

	if err := client.CreateIndexes(ctx); err != nil {
		logger.Error("Failed to create indexes: " + err.Error())
		os.Exit(1)
	}

	logger.Info("Indexes created successfully!")
}
