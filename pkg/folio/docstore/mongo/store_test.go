package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folio-content/pkg/folio"
	"github.com/tendant/folio-content/pkg/folio/docstore/mongo"
	"github.com/tendant/folio-content/pkg/folio/docstore/storetest"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Set TEST_MONGO_URL (e.g. mongodb://localhost:27017) to run these tests.
// Each case uses its own database, dropped on cleanup.
func mongoURL(t *testing.T) string {
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL not set, skipping mongo tests")
	}
	return uri
}

func dropDatabase(t *testing.T, uri, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return
	}
	defer client.Disconnect(ctx)
	_ = client.Database(name).Drop(ctx)
}

func TestMongoStore(t *testing.T) {
	uri := mongoURL(t)
	n := 0

	storetest.Run(t, func(t *testing.T) folio.DocumentStore {
		n++
		name := fmt.Sprintf("folio_test_%d_%d", time.Now().UnixNano(), n)
		store, err := mongo.Connect(context.Background(), mongo.Config{URI: uri, Database: name})
		require.NoError(t, err)
		t.Cleanup(func() {
			dropDatabase(t, uri, name)
			store.Close(context.Background())
		})
		return store
	})
}

func TestMongoStore_Reseed(t *testing.T) {
	uri := mongoURL(t)
	name := fmt.Sprintf("folio_test_reseed_%d", time.Now().UnixNano())
	ctx := context.Background()

	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(ctx) })

	storetest.RunReseed(t,
		func(t *testing.T) folio.DocumentStore {
			store, err := mongo.Connect(ctx, mongo.Config{URI: uri, Database: name})
			require.NoError(t, err)
			t.Cleanup(func() {
				dropDatabase(t, uri, name)
				store.Close(ctx)
			})
			return store
		},
		func(t *testing.T, _ folio.DocumentStore, collection string) {
			_, err := client.Database(name).Collection(collection).DeleteMany(ctx, bson.D{})
			require.NoError(t, err)
		})

	locks, err := client.Database(name).Collection("_seed_locks").CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.Zero(t, locks, "seed markers are released")
}

func TestMongoStore_SeedMarkerHiddenFromCollections(t *testing.T) {
	uri := mongoURL(t)
	name := fmt.Sprintf("folio_test_marker_%d", time.Now().UnixNano())
	ctx := context.Background()

	store, err := mongo.Connect(ctx, mongo.Config{URI: uri, Database: name})
	require.NoError(t, err)
	t.Cleanup(func() {
		dropDatabase(t, uri, name)
		store.Close(ctx)
	})

	_, err = store.InsertIfEmpty(ctx, "theme", nil)
	require.NoError(t, err)
	_, err = store.Insert(ctx, "hero", []byte(`{"title":"t"}`))
	require.NoError(t, err)

	names, err := store.Collections(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"hero"}, names)
}

func TestMongoStore_Unreachable(t *testing.T) {
	ctx := context.Background()
	store, err := mongo.Connect(ctx, mongo.Config{
		URI:                    "mongodb://127.0.0.1:1",
		Database:               "folio",
		ServerSelectionTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err, "the driver connects lazily")
	defer store.Close(ctx)

	err = store.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, folio.ErrStoreUnavailable)

	_, err = store.List(ctx, "hero")
	assert.Error(t, err)
}

func TestMongoStore_ConfigValidation(t *testing.T) {
	_, err := mongo.Connect(context.Background(), mongo.Config{Database: "folio"})
	assert.Error(t, err)

	_, err = mongo.Connect(context.Background(), mongo.Config{URI: "mongodb://localhost"})
	assert.Error(t, err)
}
