package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConnection wraps every failure to reach MongoDB at startup.
var ErrConnection = errors.New("could not connect to MongoDB")

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrConnection, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", ErrConnection, err)
	}
	return client, nil
}

// RestaurantIndexes are the indexes the catalog relies on: the text index
// used by free-text search and the back-reference index used by cascade
// deletes and rating lookups.
func RestaurantIndexes() (restaurants, ratings []mongo.IndexModel) {
	restaurants = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: "text"}}, Options: options.Index().SetName("name_text")},
	}
	ratings = []mongo.IndexModel{
		{Keys: bson.D{{Key: "restaurantId", Value: 1}}, Options: options.Index().SetName("restaurantId_1")},
	}
	return restaurants, ratings
}

// EnsureIndexes creates the catalog indexes. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, restaurants, ratings *mongo.Collection) error {
	rIdx, aIdx := RestaurantIndexes()
	if _, err := restaurants.Indexes().CreateMany(ctx, rIdx); err != nil {
		return fmt.Errorf("create restaurant indexes: %w", err)
	}
	if _, err := ratings.Indexes().CreateMany(ctx, aIdx); err != nil {
		return fmt.Errorf("create rating indexes: %w", err)
	}
	return nil
}
