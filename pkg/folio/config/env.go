package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvConfig is the environment variable surface read by WithEnv
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8000" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-default:"development" env-description:"development enables colored logs"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`

	DatabaseURL  string `env:"DATABASE_URL" env-description:"mongodb://, postgres://, bolt://<path> or memory"`
	DatabaseName string `env:"DATABASE_NAME" env-default:"folio" env-description:"database name or bolt root bucket"`
	DBSchema     string `env:"DB_SCHEMA" env-description:"Postgres search_path"`

	StorageURL string `env:"STORAGE_URL" env-default:"file://uploads" env-description:"file://<dir>, s3://<bucket>[/<prefix>] or memory://"`
	S3         S3Env

	CacheURL string        `env:"CACHE_URL" env-description:"redis:// URL enabling the list cache"`
	CacheTTL time.Duration `env:"CACHE_TTL" env-default:"5m"`

	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" env-default:"33554432"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`
}

// S3Env holds the S3 options used when STORAGE_URL is s3://
type S3Env struct {
	Region          string `env:"S3_REGION" env-default:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET" env-default:"false"`
	SSEAlgorithm    string `env:"S3_SSE_ALGORITHM"`
	SSEKMSKeyID     string `env:"S3_SSE_KMS_KEY_ID"`
}

// WithEnv applies environment variable overrides.
//
// Environment variable mapping:
//
//	PORT, ENVIRONMENT, LOG_LEVEL
//	DATABASE_URL  - "mongodb://...", "postgres://...", "bolt://<path>"; empty or "memory" uses memory
//	DATABASE_NAME - Mongo database, Postgres database override, Bolt root bucket
//	DB_SCHEMA     - Postgres search_path
//	STORAGE_URL   - "file://<dir>" (default file://uploads), "s3://<bucket>[/<prefix>]", "memory://"
//	S3_*          - S3 region, endpoint, credentials, addressing and server-side encryption
//	CACHE_URL, CACHE_TTL - optional Redis list cache
//	CORS_ALLOWED_ORIGINS, MAX_UPLOAD_BYTES, REQUEST_TIMEOUT
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env EnvConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

func (e EnvConfig) apply(c *ServerConfig) error {
	c.Port = e.Port
	c.Environment = e.Environment
	c.LogLevel = e.LogLevel

	if err := WithDatabaseURL(e.DatabaseURL)(c); err != nil {
		return err
	}
	c.DatabaseName = e.DatabaseName
	_, c.DatabaseNameSet = os.LookupEnv("DATABASE_NAME")
	c.DBSchema = e.DBSchema

	if err := parseStorageURL(e.StorageURL, c); err != nil {
		return err
	}
	c.S3.Region = e.S3.Region
	c.S3.Endpoint = e.S3.Endpoint
	c.S3.AccessKeyID = e.S3.AccessKeyID
	c.S3.SecretAccessKey = e.S3.SecretAccessKey
	c.S3.UsePathStyle = e.S3.UsePathStyle
	c.S3.CreateBucket = e.S3.CreateBucket
	c.S3.SSEAlgorithm = e.S3.SSEAlgorithm
	c.S3.SSEKMSKeyID = e.S3.SSEKMSKeyID

	if err := WithCache(e.CacheURL, e.CacheTTL)(c); err != nil {
		return err
	}
	if err := WithAllowedOrigins(e.CORSAllowedOrigins...)(c); err != nil {
		return err
	}
	c.MaxUploadBytes = e.MaxUploadBytes
	c.RequestTimeout = e.RequestTimeout
	return nil
}

// WithDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error. Place it before WithEnv.
func WithDotEnv(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			path = ".env"
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
}

// Usage describes the environment variables read by WithEnv
func Usage() (string, error) {
	var env EnvConfig
	return cleanenv.GetDescription(&env, nil)
}
