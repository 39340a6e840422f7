package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/folio-content/pkg/folio"
)

type document struct {
	id   string
	body json.RawMessage
}

// Store implements folio.DocumentStore using in-memory storage
type Store struct {
	mu          sync.RWMutex
	collections map[string][]document
}

// New creates a new in-memory document store
func New() *Store {
	return &Store{
		collections: make(map[string][]document),
	}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.collections[collection] = append(s.collections[collection], document{id: id, body: clone(doc)})
	return id, nil
}

func (s *Store) InsertIfEmpty(ctx context.Context, collection string, docs []json.RawMessage) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.collections[collection]) > 0 {
		return 0, nil
	}
	for _, doc := range docs {
		s.collections[collection] = append(s.collections[collection], document{id: uuid.New().String(), body: clone(doc)})
	}
	return len(docs), nil
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.collections[collection]
	out := make([]json.RawMessage, 0, len(stored))
	for _, d := range stored {
		// Return a copy to prevent external modifications
		out = append(out, clone(d.body))
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collections[collection])), nil
}

func (s *Store) Collections(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}

func clone(b json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), b...)
}

var _ folio.DocumentStore = (*Store)(nil)
