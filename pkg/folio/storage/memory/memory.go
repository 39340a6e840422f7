package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/tendant/folio-content/pkg/folio"
)

const backendName = "memory"

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the folio.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*folio.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, &folio.StorageError{Backend: backendName, Key: objectKey, Op: "meta", Err: folio.ErrObjectNotFound}
	}

	return &folio.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(obj.data)),
		ContentType: obj.mimeType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, folio.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params folio.UploadParams) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return &folio.StorageError{Backend: backendName, Key: params.ObjectKey, Op: "upload", Err: err}
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[params.ObjectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, &folio.StorageError{Backend: backendName, Key: objectKey, Op: "download", Err: folio.ErrObjectNotFound}
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

var _ folio.BlobStore = (*Backend)(nil)
