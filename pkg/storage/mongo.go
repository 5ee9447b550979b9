package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "linkatlas"
	DefaultMongoCollection = "snapshots"
)

// mongoDoc is the stored form of a snapshot. Listing fields are kept at the
// top level so List can project them without loading layouts.
type mongoDoc struct {
	Snapshot `bson:",inline"`
	Mode     string `bson:"mode"`
	Nodes    int    `bson:"nodes"`
}

// MongoStore keeps snapshots in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and uses the snapshots collection of database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(DefaultMongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func toDoc(s *Snapshot) mongoDoc {
	return mongoDoc{Snapshot: *s, Mode: s.Layout.Mode, Nodes: len(s.Layout.Nodes)}
}

func (m *MongoStore) Save(ctx context.Context, s *Snapshot) error {
	if _, err := m.coll.InsertOne(ctx, toDoc(s)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	doc.Snapshot.CreatedAt = doc.Snapshot.CreatedAt.UTC()
	return &doc.Snapshot, nil
}

func listOptions(limit int) *options.FindOptions {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1, "name": 1, "mode": 1, "nodes": 1, "created_at": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func (m *MongoStore) List(ctx context.Context, limit int) ([]Summary, error) {
	cur, err := m.coll.Find(ctx, bson.M{}, listOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := []Summary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	for i := range out {
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
