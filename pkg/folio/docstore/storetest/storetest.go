// Package storetest holds the behavior every folio.DocumentStore must
// satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folio-content/pkg/folio"
)

// Factory returns an empty store. Collection names used by Run are
// prefixed so that shared databases can be reused between runs.
type Factory func(t *testing.T) folio.DocumentStore

// Emptier deletes every document of collection through backend specific
// means; DocumentStore itself has no delete operation.
type Emptier func(t *testing.T, store folio.DocumentStore, collection string)

// Run exercises store against the DocumentStore contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAndList", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		docs := []string{`{"title":"a","n":1}`, `{"title":"b","n":2}`, `{"title":"c","n":3}`}
		ids := map[string]bool{}
		for _, d := range docs {
			id, err := store.Insert(ctx, "project", json.RawMessage(d))
			require.NoError(t, err)
			require.NotEmpty(t, id)
			ids[id] = true
		}
		assert.Len(t, ids, 3, "ids must be unique")

		got, err := store.List(ctx, "project")
		require.NoError(t, err)
		require.Len(t, got, 3)
		for i, d := range docs {
			assert.JSONEq(t, d, string(got[i]), "document %d keeps insertion order", i)
		}

		n, err := store.Count(ctx, "project")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("MissingCollection", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		got, err := store.List(ctx, "nothing_here")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)

		n, err := store.Count(ctx, "nothing_here")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("NestedValuesRoundTrip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		doc := `{"email":"a@b.c","socials":["https://x.y/"],"metadata":{"location":"Earth","n":4,"flag":true,"nested":{"k":[1,2]}},"opt":null}`
		_, err := store.Insert(ctx, "contact", json.RawMessage(doc))
		require.NoError(t, err)

		got, err := store.List(ctx, "contact")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.JSONEq(t, doc, string(got[0]))
	})

	t.Run("InsertIfEmpty", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		seed := []json.RawMessage{json.RawMessage(`{"k":1}`), json.RawMessage(`{"k":2}`)}
		n, err := store.InsertIfEmpty(ctx, "skill", seed)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = store.InsertIfEmpty(ctx, "skill", seed)
		require.NoError(t, err)
		assert.Zero(t, n)

		count, err := store.Count(ctx, "skill")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("InsertIfEmptySkipsPopulated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, "hero", json.RawMessage(`{"mine":true}`))
		require.NoError(t, err)

		n, err := store.InsertIfEmpty(ctx, "hero", []json.RawMessage{json.RawMessage(`{"seed":true}`)})
		require.NoError(t, err)
		assert.Zero(t, n)

		got, err := store.List(ctx, "hero")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.JSONEq(t, `{"mine":true}`, string(got[0]))
	})

	t.Run("InsertIfEmptyConcurrent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		seed := []json.RawMessage{json.RawMessage(`{"k":1}`), json.RawMessage(`{"k":2}`), json.RawMessage(`{"k":3}`)}
		var wg sync.WaitGroup
		var mu sync.Mutex
		total := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := store.InsertIfEmpty(ctx, "simulator", seed)
				assert.NoError(t, err)
				mu.Lock()
				total += n
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, total)
		count, err := store.Count(ctx, "simulator")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("Collections", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		for i := 0; i < 12; i++ {
			_, err := store.Insert(ctx, fmt.Sprintf("coll_%02d", i), json.RawMessage(`{}`))
			require.NoError(t, err)
		}

		all, err := store.Collections(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 12)
		assert.Equal(t, "coll_00", all[0])

		limited, err := store.Collections(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, limited, 10)
	})

	t.Run("Ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
		assert.NotEmpty(t, store.Name())
	})
}

// RunReseed checks that InsertIfEmpty looks at the current contents of a
// collection, so one that was seeded and then emptied is seeded again.
func RunReseed(t *testing.T, newStore Factory, empty Emptier) {
	store := newStore(t)
	ctx := context.Background()
	seed := []json.RawMessage{json.RawMessage(`{"k":1}`), json.RawMessage(`{"k":2}`)}

	n, err := store.InsertIfEmpty(ctx, "project", seed)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	empty(t, store, "project")
	count, err := store.Count(ctx, "project")
	require.NoError(t, err)
	require.Zero(t, count)

	n, err = store.InsertIfEmpty(ctx, "project", seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.InsertIfEmpty(ctx, "project", seed)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err = store.Count(ctx, "project")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
