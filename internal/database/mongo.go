package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoDatabase = "social_suit"

// Mongo holds the document-store client used by content and analytics
// handlers downstream of the security pipeline.
type Mongo struct {
	client *mongo.Client
	dbName string
}

// NewMongo connects to MongoDB and verifies the deployment is reachable.
func NewMongo(ctx context.Context, mongoURL string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{client: client, dbName: defaultMongoDatabase}, nil
}

// Ping verifies the deployment is still reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return m.client.Ping(pingCtx, readpref.Primary())
}

// Database returns the default application database.
func (m *Mongo) Database() *mongo.Database {
	return m.client.Database(m.dbName)
}

// Close disconnects from the deployment.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
