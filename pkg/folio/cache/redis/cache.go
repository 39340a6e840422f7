package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/folio-content/pkg/folio"
)

const (
	defaultKeyPrefix = "folio:list:"
	defaultTTL       = 5 * time.Minute
)

// Config options for the Redis list cache
type Config struct {
	URL       string        // redis://[:password@]host:port/db
	TTL       time.Duration // entry lifetime (default: 5m)
	KeyPrefix string        // default: "folio:list:"
}

// Cache implements folio.ListCache on Redis string keys, one per
// collection, holding the JSON array of stored documents.
type Cache struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// New parses cfg.URL and creates a client. No connection is made until
// the first command.
func New(cfg Config) (*Cache, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return NewWithClient(goredis.NewClient(opts), cfg), nil
}

// NewWithClient wraps an existing client
func NewWithClient(rdb *goredis.Client, cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &Cache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.KeyPrefix}
}

func (c *Cache) Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(collection)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", collection, err)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		// unreadable entries are treated as a miss and overwritten on the next Set
		return nil, false, nil
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	return docs, true, nil
}

func (c *Cache) Set(ctx context.Context, collection string, docs []json.RawMessage) error {
	if docs == nil {
		docs = []json.RawMessage{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(collection), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, collection string) error {
	if err := c.rdb.Del(ctx, c.key(collection)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", collection, err)
	}
	return nil
}

// Ping verifies the server is reachable
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) key(collection string) string {
	return c.prefix + collection
}

var _ folio.ListCache = (*Cache)(nil)
