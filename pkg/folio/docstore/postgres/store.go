package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/folio-content/pkg/folio"
)

const backendName = "postgres"

// Schema is the DDL applied by Migrate, one statement per entry.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS folio_documents (
		seq        BIGSERIAL PRIMARY KEY,
		id         UUID NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS folio_documents_collection_seq_idx ON folio_documents (collection, seq)`,
}

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Store implements folio.DocumentStore on a single JSONB table. A
// collection is the set of rows sharing a collection value.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool

	schemaMu    sync.Mutex
	schemaReady bool
}

// New creates a store on an existing connection or pool
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a store owning pool; Close closes the pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, pool: pool}
}

// Migrate creates the documents table if it does not exist. Every operation
// calls it until it has succeeded once, so a database that is down at
// startup is migrated on first use.
func (s *Store) Migrate(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if s.schemaReady {
		return nil
	}
	for _, stmt := range Schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return s.handlePostgresError("", "migrate", err)
		}
	}
	s.schemaReady = true
	return nil
}

func (s *Store) Name() string { return backendName }

func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	if err := s.Migrate(ctx); err != nil {
		return "", err
	}

	id := uuid.New()
	_, err := s.db.Exec(ctx,
		`INSERT INTO folio_documents (id, collection, body) VALUES ($1, $2, $3)`,
		id, collection, []byte(doc))
	if err != nil {
		return "", s.handlePostgresError(collection, "insert", err)
	}
	return id.String(), nil
}

// InsertIfEmpty serializes concurrent seeders of one collection with a
// transaction-scoped advisory lock keyed by the collection name.
func (s *Store) InsertIfEmpty(ctx context.Context, collection string, docs []json.RawMessage) (int, error) {
	if err := s.Migrate(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, s.handlePostgresError(collection, "insert_if_empty", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection); err != nil {
		return 0, s.handlePostgresError(collection, "insert_if_empty", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM folio_documents WHERE collection = $1)`, collection).Scan(&exists)
	if err != nil {
		return 0, s.handlePostgresError(collection, "insert_if_empty", err)
	}
	if exists {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		batch.Queue(`INSERT INTO folio_documents (id, collection, body) VALUES ($1, $2, $3)`,
			uuid.New(), collection, []byte(doc))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, s.handlePostgresError(collection, "insert_if_empty", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, s.handlePostgresError(collection, "insert_if_empty", err)
	}
	return len(docs), nil
}

func (s *Store) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT body FROM folio_documents WHERE collection = $1 ORDER BY seq`, collection)
	if err != nil {
		return nil, s.handlePostgresError(collection, "list", err)
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, s.handlePostgresError(collection, "list", err)
		}
		docs = append(docs, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, s.handlePostgresError(collection, "list", err)
	}
	return docs, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	if err := s.Migrate(ctx); err != nil {
		return 0, err
	}

	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM folio_documents WHERE collection = $1`, collection).Scan(&n)
	if err != nil {
		return 0, s.handlePostgresError(collection, "count", err)
	}
	return n, nil
}

func (s *Store) Collections(ctx context.Context, limit int) ([]string, error) {
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}

	query := `SELECT DISTINCT collection FROM folio_documents ORDER BY collection`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, s.handlePostgresError("", "collections", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, s.handlePostgresError("", "collections", err)
	}
	return names, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool != nil {
		if err := s.pool.Ping(ctx); err != nil {
			return s.handlePostgresError("", "ping", err)
		}
		return nil
	}
	var one int
	if err := s.db.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		return s.handlePostgresError("", "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Error handling helper
func (s *Store) handlePostgresError(collection, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			err = fmt.Errorf("table does not exist - database migration required: %w", err)
		case "57P01", "57P02", "57P03": // admin_shutdown, crash_shutdown, cannot_connect_now
			err = folio.Unavailable(err)
		}
		return &folio.StoreError{Backend: backendName, Collection: collection, Op: op, Err: err}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		err = folio.Unavailable(err)
	}
	return &folio.StoreError{Backend: backendName, Collection: collection, Op: op, Err: err}
}

var _ folio.DocumentStore = (*Store)(nil)
