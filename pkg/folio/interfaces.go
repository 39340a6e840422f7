package folio

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// DocumentStore defines the interface for document persistence. Documents
// are opaque JSON objects grouped in named collections.
type DocumentStore interface {
	// Insert appends doc to collection and returns the generated identifier
	Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error)

	// InsertIfEmpty inserts docs only when collection holds no documents,
	// atomically with respect to other InsertIfEmpty calls. It returns the
	// number of documents inserted (0 when the collection was not empty).
	InsertIfEmpty(ctx context.Context, collection string, docs []json.RawMessage) (int, error)

	// List returns every document of collection in storage order. A missing
	// collection yields an empty slice.
	List(ctx context.Context, collection string) ([]json.RawMessage, error)

	// Count returns the number of documents in collection
	Count(ctx context.Context, collection string) (int64, error)

	// Collections returns up to limit existing collection names
	Collections(ctx context.Context, limit int) ([]string, error)

	// Ping verifies connectivity
	Ping(ctx context.Context) error

	// Name identifies the backend type, e.g. "mongo"
	Name() string

	// Close releases the underlying connection
	Close(ctx context.Context) error
}

// BlobStore defines the interface for upload storage backends
type BlobStore interface {
	// Upload stores content under objectKey, replacing any previous content
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download opens the content stored under objectKey. Missing keys yield
	// an error wrapping ErrObjectNotFound.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ListCache caches the raw documents of a collection.
type ListCache interface {
	Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error)
	Set(ctx context.Context, collection string, docs []json.RawMessage) error
	Invalidate(ctx context.Context, collection string) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
