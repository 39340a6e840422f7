package config

import (
	"fmt"
	"strings"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogLevel sets the minimum slog level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		c.LogLevel = level
		return nil
	}
}

// WithDatabaseURL selects the document store from a connection URL.
// An empty URL or "memory" selects the in-memory store.
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		dbType, target, err := parseDatabaseURL(url)
		if err != nil {
			return err
		}
		c.DatabaseType = dbType
		c.DatabaseURL = target
		c.DatabaseURLSet = url != ""
		return nil
	}
}

// WithDatabaseName sets the database (or bolt root bucket) name
func WithDatabaseName(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("database name cannot be empty")
		}
		c.DatabaseName = name
		c.DatabaseNameSet = true
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithStorageURL selects the upload backend: memory://, file://<dir> or s3://<bucket>[/<prefix>]
func WithStorageURL(url string) Option {
	return func(c *ServerConfig) error {
		return parseStorageURL(url, c)
	}
}

// WithFilesystemStorage stores uploads under dir
func WithFilesystemStorage(dir string) Option {
	return func(c *ServerConfig) error {
		if dir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StorageType = StorageFS
		c.StorageDir = dir
		return nil
	}
}

// WithS3Storage stores uploads in an S3 bucket
func WithS3Storage(s3 S3Config) Option {
	return func(c *ServerConfig) error {
		if s3.Bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if s3.Region == "" {
			s3.Region = "us-east-1"
		}
		c.StorageType = StorageS3
		c.S3 = s3
		return nil
	}
}

// WithCache enables the Redis list cache
func WithCache(url string, ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if url != "" && !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
			return fmt.Errorf("cache url must start with redis:// or rediss://")
		}
		c.CacheURL = url
		if ttl > 0 {
			c.CacheTTL = ttl
		}
		return nil
	}
}

// WithAllowedOrigins sets the CORS allow list
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.AllowedOrigins = nil
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
		if len(c.AllowedOrigins) == 0 {
			c.AllowedOrigins = []string{"*"}
		}
		return nil
	}
}

// WithMaxUploadBytes limits the size of an upload request
func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got: %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}

// WithRequestTimeout sets the per-request deadline
func WithRequestTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive, got: %s", d)
		}
		c.RequestTimeout = d
		return nil
	}
}
