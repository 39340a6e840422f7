package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/tendant/folio-content/pkg/folio"
	rediscache "github.com/tendant/folio-content/pkg/folio/cache/redis"
	boltstore "github.com/tendant/folio-content/pkg/folio/docstore/bolt"
	memorystore "github.com/tendant/folio-content/pkg/folio/docstore/memory"
	mongostore "github.com/tendant/folio-content/pkg/folio/docstore/mongo"
	pgstore "github.com/tendant/folio-content/pkg/folio/docstore/postgres"
	fsstorage "github.com/tendant/folio-content/pkg/folio/storage/fs"
	memorystorage "github.com/tendant/folio-content/pkg/folio/storage/memory"
	s3storage "github.com/tendant/folio-content/pkg/folio/storage/s3"
)

// Database and storage backend types
const (
	DatabaseMemory   = "memory"
	DatabaseMongo    = "mongo"
	DatabasePostgres = "postgres"
	DatabaseBolt     = "bolt"

	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8000",
		Environment:    "development",
		LogLevel:       "info",
		DatabaseType:   DatabaseMemory,
		DatabaseName:   "folio",
		StorageType:    StorageFS,
		StorageDir:     "uploads",
		S3:             S3Config{Region: "us-east-1"},
		CacheTTL:       5 * time.Minute,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 32 << 20,
		RequestTimeout: 60 * time.Second,
	}
}

// ServerConfig represents server configuration for the folio service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Database configuration
	DatabaseType    string // "memory", "mongo", "postgres", "bolt"
	DatabaseURL     string
	DatabaseName    string // Mongo database, Postgres database override, Bolt root bucket
	DBSchema        string // Postgres search_path
	DatabaseURLSet  bool
	DatabaseNameSet bool

	// Upload storage configuration
	StorageType string // "memory", "fs", "s3"
	StorageDir  string
	S3          S3Config

	// Optional Redis list cache
	CacheURL string
	CacheTTL time.Duration

	// HTTP options
	AllowedOrigins []string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// S3Config holds the options of the S3 upload backend
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	CreateBucket    bool

	// SSEAlgorithm is "", "AES256" or "aws:kms"
	SSEAlgorithm string
	SSEKMSKeyID  string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabaseMongo, DatabasePostgres, DatabaseBolt:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	if c.DatabaseName == "" {
		return errors.New("database_name is required")
	}

	switch c.StorageType {
	case StorageMemory:
	case StorageFS:
		if c.StorageDir == "" {
			return errors.New("storage directory is required for fs storage")
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required for s3 storage")
		}
		switch c.S3.SSEAlgorithm {
		case "", "AES256", "aws:kms":
		default:
			return fmt.Errorf("unsupported s3 server-side encryption: %s", c.S3.SSEAlgorithm)
		}
		if c.S3.SSEKMSKeyID != "" && c.S3.SSEAlgorithm != "aws:kms" {
			return errors.New("s3 kms key id requires aws:kms server-side encryption")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got: %d", c.MaxUploadBytes)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", c.CacheTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %s", c.RequestTimeout)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewLogger returns a colored tint logger in development and a JSON logger
// otherwise.
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	if c.Environment == "development" {
		return slog.New(tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// CleanupFunc releases the resources acquired by BuildService
type CleanupFunc func(ctx context.Context) error

// BuildService creates a Service instance from the server configuration.
// Remote stores connect lazily, so an unreachable database does not fail
// startup; it shows up in diagnostics and as errors on requests.
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (folio.Service, CleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	store, err := c.BuildDocumentStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build document store: %w", err)
	}
	closers = append(closers, store.Close)

	blobs, err := c.BuildBlobStore(ctx)
	if err != nil {
		_ = cleanup(ctx)
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	options := []folio.Option{
		folio.WithDocumentStore(store),
		folio.WithBlobStore(blobs),
		folio.WithLogger(logger),
		folio.WithDatabaseSettings(folio.DatabaseSettings{
			URLSet:  c.DatabaseURLSet,
			NameSet: c.DatabaseNameSet,
		}),
	}

	if c.CacheURL != "" {
		cache, err := rediscache.New(rediscache.Config{URL: c.CacheURL, TTL: c.CacheTTL})
		if err != nil {
			_ = cleanup(ctx)
			return nil, nil, fmt.Errorf("failed to build list cache: %w", err)
		}
		closers = append(closers, func(context.Context) error { return cache.Close() })

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := cache.Ping(pingCtx); err != nil {
			logger.Warn("List cache unreachable; requests fall through to the store", "error", err)
		}
		cancel()
		options = append(options, folio.WithCache(cache))
	}

	svc, err := folio.New(options...)
	if err != nil {
		_ = cleanup(ctx)
		return nil, nil, err
	}

	logger.Info("Service configured",
		"database_type", c.DatabaseType,
		"storage_type", c.StorageType,
		"cache_enabled", c.CacheURL != "")
	return svc, cleanup, nil
}

// BuildDocumentStore creates the DocumentStore selected by DatabaseType
func (c *ServerConfig) BuildDocumentStore(ctx context.Context) (folio.DocumentStore, error) {
	switch c.DatabaseType {
	case DatabaseMemory:
		return memorystore.New(), nil

	case DatabaseMongo:
		return mongostore.Connect(ctx, mongostore.Config{
			URI:      c.DatabaseURL,
			Database: c.DatabaseName,
		})

	case DatabasePostgres:
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		if c.DatabaseNameSet {
			cfg.ConnConfig.Database = c.DatabaseName
		}
		// Optionally set search_path for the connection
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return pgstore.NewWithPool(pool), nil

	case DatabaseBolt:
		return boltstore.Open(boltstore.Config{
			Path:       c.DatabaseURL,
			RootBucket: c.DatabaseName,
		})

	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildBlobStore creates the upload BlobStore selected by StorageType
func (c *ServerConfig) BuildBlobStore(ctx context.Context) (folio.BlobStore, error) {
	switch c.StorageType {
	case StorageMemory:
		return memorystorage.New(), nil

	case StorageFS:
		return fsstorage.New(fsstorage.Config{BaseDir: c.StorageDir})

	case StorageS3:
		return s3storage.New(ctx, c.s3StorageConfig())

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

func (c *ServerConfig) s3StorageConfig() s3storage.Config {
	return s3storage.Config{
		Region:                 c.S3.Region,
		Bucket:                 c.S3.Bucket,
		Prefix:                 c.S3.Prefix,
		AccessKeyID:            c.S3.AccessKeyID,
		SecretAccessKey:        c.S3.SecretAccessKey,
		Endpoint:               c.S3.Endpoint,
		UsePathStyle:           c.S3.UsePathStyle,
		CreateBucketIfNotExist: c.S3.CreateBucket,
		SSEAlgorithm:           c.S3.SSEAlgorithm,
		SSEKMSKeyID:            c.S3.SSEKMSKeyID,
	}
}

// parseDatabaseURL maps a DATABASE_URL onto a backend type and the
// connection target passed to it.
func parseDatabaseURL(raw string) (dbType, target string, err error) {
	switch {
	case raw == "" || raw == "memory" || raw == "memory://":
		return DatabaseMemory, "", nil
	case strings.HasPrefix(raw, "mongodb://"), strings.HasPrefix(raw, "mongodb+srv://"):
		return DatabaseMongo, raw, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DatabasePostgres, raw, nil
	case strings.HasPrefix(raw, "bolt://"):
		path := strings.TrimPrefix(raw, "bolt://")
		if path == "" {
			return "", "", errors.New("bolt path cannot be empty in DATABASE_URL")
		}
		return DatabaseBolt, path, nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL format (use 'memory', 'mongodb://...', 'postgres://...' or 'bolt://...')")
	}
}

// parseStorageURL applies a STORAGE_URL: memory://, file://<dir> or
// s3://<bucket>[/<prefix>].
func parseStorageURL(raw string, c *ServerConfig) error {
	switch {
	case raw == "memory" || raw == "memory://":
		c.StorageType = StorageMemory
	case strings.HasPrefix(raw, "file://"):
		dir := strings.TrimPrefix(raw, "file://")
		if dir == "" {
			return errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
		c.StorageType = StorageFS
		c.StorageDir = dir
	case strings.HasPrefix(raw, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(raw, "s3://"), "/")
		if bucket == "" {
			return errors.New("S3 bucket name cannot be empty in STORAGE_URL")
		}
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		c.StorageType = StorageS3
		c.S3.Bucket = bucket
		c.S3.Prefix = prefix
	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
	}
	return nil
}
