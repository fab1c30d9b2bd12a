package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rime13-coder/azure-diagram-generator/pkg/errors"
)

// MongoConfig configures the MongoDB store backend.
type MongoConfig struct {
	// URI is the MongoDB connection string, e.g. "mongodb://localhost:27017".
	URI string `json:"uri" toml:"uri"`

	// Database is the database name. Defaults to "azurediagram".
	Database string `json:"database" toml:"database"`

	// ConnectTimeout bounds the initial connection and ping.
	// Defaults to 10 seconds.
	ConnectTimeout time.Duration `json:"connect_timeout" toml:"connect_timeout"`
}

// MongoStore persists records in MongoDB collections.
// Snapshots go to the "snapshots" collection, graphs to "graphs",
// each keyed by record name as _id.
type MongoStore struct {
	client    *mongo.Client
	snapshots *mongo.Collection
	graphs    *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a ping.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "azurediagram"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongo")
	}

	db := client.Database(cfg.Database)
	return &MongoStore{
		client:    client,
		snapshots: db.Collection("snapshots"),
		graphs:    db.Collection("graphs"),
	}, nil
}

func (s *MongoStore) SaveSnapshot(ctx context.Context, rec *SnapshotRecord) error {
	if rec == nil || rec.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot record needs a name")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.snapshots.ReplaceOne(ctx, bson.M{"_id": rec.Name}, rec, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save snapshot")
	}
	return nil
}

func (s *MongoStore) LoadSnapshot(ctx context.Context, name string) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	err := s.snapshots.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found: %s", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load snapshot")
	}
	return &rec, nil
}

func (s *MongoStore) ListSnapshots(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.M{"_id": 1})
	cursor, err := s.snapshots.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "decode snapshot name")
		}
		names = append(names, doc.Name)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "iterate snapshots")
	}
	return names, nil
}

func (s *MongoStore) DeleteSnapshot(ctx context.Context, name string) error {
	if _, err := s.snapshots.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot")
	}
	return nil
}

func (s *MongoStore) SaveGraph(ctx context.Context, rec *GraphRecord) error {
	if rec == nil || rec.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "graph record needs a name")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := s.graphs.ReplaceOne(ctx, bson.M{"_id": rec.Name}, rec, opts); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save graph")
	}
	return nil
}

func (s *MongoStore) LoadGraph(ctx context.Context, name string) (*GraphRecord, error) {
	var rec GraphRecord
	err := s.graphs.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "graph not found: %s", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load graph")
	}
	return &rec, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
