package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "placetree"
	DefaultMongoCollection = "snapshots"
	DefaultMongoKey        = "default"

	mongoMoveAttempts = 5
	mongoCloseTimeout = 5 * time.Second
)

// MongoConfig addresses one snapshot document.
type MongoConfig struct {
	// URI is the connection string. Its path names the database.
	URI string
	// Database overrides the database from the URI.
	Database string
	// Collection defaults to DefaultMongoCollection.
	Collection string
	// Key is the document id, DefaultMongoKey when empty.
	Key string
}

// mongoSnapshot is the single document holding an ordered snapshot.
type mongoSnapshot struct {
	ID        string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Locations []record  `bson:"locations"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps the whole snapshot in one document. Moves read the
// document, apply the intent and write it back only if the version is
// unchanged, retrying a few times under contention.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	key    string
}

// NewMongoStore connects to the server named by cfg.URI.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo store: empty connection url")
	}
	if cfg.Database == "" {
		cs, err := connstring.ParseAndValidate(cfg.URI)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mongo url")
		}
		cfg.Database = cs.Database
	}
	if cfg.Database == "" {
		cfg.Database = DefaultMongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultMongoCollection
	}
	if cfg.Key == "" {
		cfg.Key = DefaultMongoKey
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		key:    cfg.Key,
	}, nil
}

func (s *MongoStore) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.nodes()
}

func (s *MongoStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	for attempt := 0; attempt < mongoMoveAttempts; attempt++ {
		doc, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		nodes, err := doc.nodes()
		if err != nil {
			return nil, err
		}
		out, err := apply(ctx, nodes, intent)
		if err != nil {
			return nil, err
		}
		ok, err := s.swap(ctx, doc.Version, out)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
	}
	return nil, errors.New(errors.ErrCodeConflict, "snapshot changed during move of %q, try again", intent.LocationID)
}

func (s *MongoStore) Replace(ctx context.Context, nodes []hierarchy.Node) error {
	if err := hierarchy.Validate(nodes); err != nil {
		return err
	}
	update := bson.M{
		"$set": bson.M{"locations": toRecords(nodes), "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.key}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// load returns the snapshot document, or an empty version-0 document when
// none exists yet.
func (s *MongoStore) load(ctx context.Context) (mongoSnapshot, error) {
	var doc mongoSnapshot
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return mongoSnapshot{ID: s.key}, nil
	}
	if err != nil {
		return doc, fmt.Errorf("mongo load: %w", err)
	}
	return doc, nil
}

// swap writes nodes if the stored version is still version. It reports
// false when another writer got there first.
func (s *MongoStore) swap(ctx context.Context, version int64, nodes []hierarchy.Node) (bool, error) {
	next := mongoSnapshot{
		ID:        s.key,
		Version:   version + 1,
		Locations: toRecords(nodes),
		UpdatedAt: time.Now().UTC(),
	}
	filter := bson.M{"_id": s.key, "version": version}
	res, err := s.coll.ReplaceOne(ctx, filter, next, options.Replace().SetUpsert(version == 0))
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongo write: %w", err)
	}
	return res.MatchedCount > 0 || res.UpsertedCount > 0, nil
}

func (d mongoSnapshot) nodes() ([]hierarchy.Node, error) {
	if len(d.Locations) == 0 {
		return nil, nil
	}
	nodes := make([]hierarchy.Node, len(d.Locations))
	for i, r := range d.Locations {
		nodes[i] = r.node()
	}
	if err := hierarchy.Validate(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func toRecords(nodes []hierarchy.Node) []record {
	out := make([]record, len(nodes))
	for i, n := range nodes {
		out[i] = toRecord(n)
	}
	return out
}

var _ Store = (*MongoStore)(nil)
