package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collections groups the collections the service reads and writes.
type Collections struct {
	Client      *mongo.Client
	Users       *mongo.Collection
	Itineraries *mongo.Collection
	Shares      *mongo.Collection
	Comments    *mongo.Collection
}

// Connect opens a MongoDB client, pings it and resolves the collections.
func Connect(ctx context.Context, uri, database string) (*Collections, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d := client.Database(database)
	return &Collections{
		Client:      client,
		Users:       d.Collection("users"),
		Itineraries: d.Collection("itinerary"),
		Shares:      d.Collection("shares"),
		Comments:    d.Collection("comments"),
	}, nil
}

// EnsureIndexes creates the lookup indexes. Failures are logged, not fatal.
func (c *Collections) EnsureIndexes(ctx context.Context, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{c.Users, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{c.Users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{c.Itineraries, mongo.IndexModel{Keys: bson.D{{Key: "itineraryid", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{c.Itineraries, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}}},
		{c.Shares, mongo.IndexModel{Keys: bson.D{{Key: "shareid", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{c.Shares, mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}},
		{c.Comments, mongo.IndexModel{Keys: bson.D{{Key: "shareid", Value: 1}, {Key: "created_at", Value: 1}}}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			logger.Warn("index creation failed", zap.String("collection", ix.coll.Name()), zap.Error(err))
		}
	}
}

func (c *Collections) Disconnect(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
