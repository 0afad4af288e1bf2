package storage

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"blockshell/internal/domain"
)

// DefaultMongoDatabase is used when the connection string names none.
const DefaultMongoDatabase = "blockshell"

// Mongo stores one document per tab.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri. The database is taken from the URI path, or
// DefaultMongoDatabase.
func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	dbName := mongoDatabase(uri)
	return &Mongo{client: client, coll: client.Database(dbName).Collection(sessionBucket)}, nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func (m *Mongo) LoadAll(ctx context.Context) ([]domain.WorkspaceSession, error) {
	cursor, err := m.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "tabId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	var out []domain.WorkspaceSession
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return out, nil
}

// SaveAll deletes every document, then inserts the new set. The two steps
// are not atomic without a replica-set transaction.
func (m *Mongo) SaveAll(ctx context.Context, sessions []domain.WorkspaceSession) error {
	if _, err := m.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if len(sessions) == 0 {
		return nil
	}
	docs := make([]any, len(sessions))
	for i, rec := range sessions {
		if rec.Windows == nil {
			rec.Windows = []domain.WindowSnapshot{}
		}
		docs[i] = rec
	}
	if _, err := m.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert sessions: %w", err)
	}
	return nil
}

// mongoDatabase extracts the path component of a mongodb:// URI.
func mongoDatabase(uri string) string {
	_, rest, found := strings.Cut(uri, "://")
	if !found {
		rest = uri
	}
	_, path, found := strings.Cut(rest, "/")
	if !found {
		return DefaultMongoDatabase
	}
	name, _, _ := strings.Cut(path, "?")
	if name == "" {
		return DefaultMongoDatabase
	}
	return name
}
