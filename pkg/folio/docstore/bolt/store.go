package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/folio-content/pkg/folio"
	"go.etcd.io/bbolt"
)

const backendName = "bolt"

// Config options for the Bolt document store
type Config struct {
	Path        string        // Database file path
	RootBucket  string        // Top-level bucket; one nested bucket per collection
	OpenTimeout time.Duration // How long to wait for the file lock (default: 5s)
}

// Store implements folio.DocumentStore on an embedded bbolt file. Documents
// are keyed by the bucket sequence so iteration order is insertion order.
type Store struct {
	db   *bbolt.DB
	root []byte
}

type record struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

// Open opens (creating if necessary) the database file.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("bolt path is required")
	}
	if cfg.RootBucket == "" {
		cfg.RootBucket = "folio"
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: cfg.OpenTimeout})
	if err != nil {
		return nil, folio.Unavailable(fmt.Errorf("open %s: %w", cfg.Path, err))
	}

	root := []byte(cfg.RootBucket)
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(root)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, root: root}, nil
}

func (s *Store) Name() string { return backendName }

func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	id := uuid.New().String()
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := s.collectionBucket(tx, collection)
		if err != nil {
			return err
		}
		return put(b, id, doc)
	})
	if err != nil {
		return "", s.wrap(collection, "insert", err)
	}
	return id, nil
}

// InsertIfEmpty runs the emptiness check and the inserts in one write
// transaction; bbolt allows a single writer at a time.
func (s *Store) InsertIfEmpty(ctx context.Context, collection string, docs []json.RawMessage) (int, error) {
	inserted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := s.collectionBucket(tx, collection)
		if err != nil {
			return err
		}
		if k, _ := b.Cursor().First(); k != nil {
			return nil
		}
		for _, doc := range docs {
			if err := put(b, uuid.New().String(), doc); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, s.wrap(collection, "insert_if_empty", err)
	}
	return inserted, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	out := []json.RawMessage{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.root).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode key %x: %w", k, err)
			}
			out = append(out, rec.Body)
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap(collection, "list", err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.root).Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		n = int64(b.Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, s.wrap(collection, "count", err)
	}
	return n, nil
}

func (s *Store) Collections(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.root).ForEach(func(k, v []byte) error {
			// nested buckets have a nil value
			if v == nil {
				names = append(names, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, s.wrap("", "collections", err)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.root) == nil {
			return errors.New("root bucket missing")
		}
		return nil
	})
	if err != nil {
		return s.wrap("", "ping", folio.Unavailable(err))
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *Store) collectionBucket(tx *bbolt.Tx, collection string) (*bbolt.Bucket, error) {
	if collection == "" {
		return nil, errors.New("collection name is required")
	}
	return tx.Bucket(s.root).CreateBucketIfNotExists([]byte(collection))
}

func put(b *bbolt.Bucket, id string, doc json.RawMessage) error {
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	data, err := json.Marshal(record{ID: id, Body: doc})
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, data)
}

func (s *Store) wrap(collection, op string, err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		err = folio.Unavailable(err)
	}
	return &folio.StoreError{Backend: backendName, Collection: collection, Op: op, Err: err}
}

var _ folio.DocumentStore = (*Store)(nil)
