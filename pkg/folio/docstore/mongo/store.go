package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tendant/folio-content/pkg/folio"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	backendName = "mongo"

	// seedLocksCollection holds one marker document per collection being seeded
	seedLocksCollection = "_seed_locks"

	seedLockTTL = 2 * time.Minute
)

// Config options for the MongoDB document store
type Config struct {
	URI                    string
	Database               string
	ServerSelectionTimeout time.Duration // default: 5s
}

// Store implements folio.DocumentStore with one MongoDB collection per
// content model. Documents get a driver-generated ObjectID.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	lockIndexMu    sync.Mutex
	lockIndexReady bool
}

// Connect creates a client for cfg.URI. The driver connects lazily, so an
// unreachable server surfaces on first use rather than here.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if cfg.ServerSelectionTimeout == 0 {
		cfg.ServerSelectionTimeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

func (s *Store) Name() string { return backendName }

func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	d, err := toBSON(doc)
	if err != nil {
		return "", s.wrap(collection, "insert", err)
	}
	res, err := s.db.Collection(collection).InsertOne(ctx, d)
	if err != nil {
		return "", s.wrap(collection, "insert", err)
	}
	return idString(res.InsertedID), nil
}

// InsertIfEmpty claims the collection by inserting a marker keyed by its
// name into the seed locks collection. Only the caller whose marker insert
// succeeds writes documents; the unique _id index arbitrates. The marker is
// released once the caller is done, so a collection emptied later can be
// seeded again. Markers left by a crashed process expire through a TTL index.
func (s *Store) InsertIfEmpty(ctx context.Context, collection string, docs []json.RawMessage) (int, error) {
	coll := s.db.Collection(collection)

	empty, err := s.isEmpty(ctx, coll)
	if err != nil || !empty {
		return 0, err
	}

	batch := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		d, err := toBSON(doc)
		if err != nil {
			return 0, s.wrap(collection, "insert_if_empty", err)
		}
		batch = append(batch, d)
	}

	claimed, err := s.claimSeed(ctx, collection)
	if err != nil || !claimed {
		return 0, err
	}
	defer s.releaseSeed(ctx, collection)

	// a concurrent seeder may have finished and released between the first
	// count and the claim
	empty, err = s.isEmpty(ctx, coll)
	if err != nil || !empty || len(batch) == 0 {
		return 0, err
	}

	res, err := coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, s.wrap(collection, "insert_if_empty", err)
	}
	return len(res.InsertedIDs), nil
}

func (s *Store) isEmpty(ctx context.Context, coll *mongo.Collection) (bool, error) {
	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return false, s.wrap(coll.Name(), "insert_if_empty", err)
	}
	return n == 0, nil
}

func (s *Store) claimSeed(ctx context.Context, collection string) (bool, error) {
	locks := s.db.Collection(seedLocksCollection)

	if err := s.ensureLockIndex(ctx, locks); err != nil {
		return false, s.wrap(collection, "insert_if_empty", err)
	}

	marker := bson.D{{Key: "_id", Value: collection}, {Key: "claimed_at", Value: time.Now().UTC()}}
	if _, err := locks.InsertOne(ctx, marker); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, s.wrap(collection, "insert_if_empty", err)
	}
	return true, nil
}

func (s *Store) ensureLockIndex(ctx context.Context, locks *mongo.Collection) error {
	s.lockIndexMu.Lock()
	defer s.lockIndexMu.Unlock()
	if s.lockIndexReady {
		return nil
	}
	_, err := locks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "claimed_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(seedLockTTL / time.Second)),
	})
	if err != nil {
		return err
	}
	s.lockIndexReady = true
	return nil
}

// releaseSeed runs even when ctx is already canceled; a leftover marker
// would block seeding until it expires.
func (s *Store) releaseSeed(ctx context.Context, collection string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, _ = s.db.Collection(seedLocksCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: collection}})
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, s.wrap(collection, "list", err)
	}
	defer cur.Close(ctx)

	out := []json.RawMessage{}
	for cur.Next(ctx) {
		var d bson.D
		if err := cur.Decode(&d); err != nil {
			return nil, s.wrap(collection, "list", err)
		}
		raw, err := fromBSON(d)
		if err != nil {
			return nil, s.wrap(collection, "list", err)
		}
		out = append(out, raw)
	}
	if err := cur.Err(); err != nil {
		return nil, s.wrap(collection, "list", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, s.wrap(collection, "count", err)
	}
	return n, nil
}

func (s *Store) Collections(ctx context.Context, limit int) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, s.wrap("", "collections", err)
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != seedLocksCollection {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return s.wrap("", "ping", folio.Unavailable(err))
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// toBSON converts a JSON object into a BSON document, keeping field order.
func toBSON(doc json.RawMessage) (bson.D, error) {
	var d bson.D
	if err := bson.UnmarshalExtJSON(doc, false, &d); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return d, nil
}

// fromBSON drops the _id field and renders the rest as relaxed extended
// JSON, which for the value types folio records use is plain JSON.
func fromBSON(d bson.D) (json.RawMessage, error) {
	fields := make(bson.D, 0, len(d))
	for _, e := range d {
		if e.Key != "_id" {
			fields = append(fields, e)
		}
	}
	data, err := bson.MarshalExtJSON(fields, false, false)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return json.RawMessage(data), nil
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

func (s *Store) wrap(collection, op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		err = folio.Unavailable(err)
	}
	return &folio.StoreError{Backend: backendName, Collection: collection, Op: op, Err: err}
}

var _ folio.DocumentStore = (*Store)(nil)
