// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/timeouts"
)

// Deps holds the backend handles assembled during startup.
type Deps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}

// ConnectStore connects to MongoDB with the URI taken from the fetched
// service credentials and verifies the connection with a bounded ping.
func ConnectStore(ctx context.Context, uri string, cfg AppConfig, logger *zap.Logger) (Deps, error) {
	if uri == "" {
		return Deps{}, fmt.Errorf("service credentials carry no store URI")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(cfg.MongoMaxPoolSize).
		SetMinPoolSize(cfg.MongoMinPoolSize)

	connectCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return Deps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Deps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to document store", zap.String("database", cfg.Database))
	return Deps{
		MongoClient:   client,
		MongoDatabase: client.Database(cfg.Database),
	}, nil
}
