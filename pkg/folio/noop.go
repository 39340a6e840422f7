package folio

import (
	"context"
	"encoding/json"
)

// NoopCache is a ListCache that never holds anything.
// It is the default when no cache is configured.
type NoopCache struct{}

// NewNoopCache creates a new no-operation cache
func NewNoopCache() ListCache {
	return &NoopCache{}
}

// Get always misses
func (n *NoopCache) Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error) {
	return nil, false, nil
}

// Set does nothing and returns nil
func (n *NoopCache) Set(ctx context.Context, collection string, docs []json.RawMessage) error {
	return nil
}

// Invalidate does nothing and returns nil
func (n *NoopCache) Invalidate(ctx context.Context, collection string) error {
	return nil
}
