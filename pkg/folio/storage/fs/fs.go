package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tendant/folio-content/pkg/folio"
)

const backendName = "fs"

// Backend is a filesystem implementation of the folio.BlobStore interface.
// Objects are flat files directly under BaseDir.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	// Validate and create base directory if it doesn't exist
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*folio.ObjectMeta, error) {
	filePath, err := b.path(objectKey)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, b.notFound("meta", objectKey)
	} else if err != nil {
		return nil, &folio.StorageError{Backend: backendName, Key: objectKey, Op: "meta", Err: err}
	}

	return &folio.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: detectContentType(filePath),
		UpdatedAt:   info.ModTime(),
	}, nil
}

// Upload writes content to a temporary file in BaseDir and renames it into
// place, so readers never observe a partially written file.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	filePath, err := b.path(objectKey)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.baseDir, ".upload-*")
	if err != nil {
		return &folio.StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: fmt.Errorf("failed to create file: %w", err)}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return &folio.StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: fmt.Errorf("failed to write file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &folio.StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &folio.StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: err}
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return &folio.StorageError{Backend: backendName, Key: objectKey, Op: "upload", Err: err}
	}
	return nil
}

// UploadWithParams uploads content with additional parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params folio.UploadParams) error {
	// For filesystem, we don't store MIME type separately, it's detected on read
	return b.Upload(ctx, params.ObjectKey, reader)
}

// Download opens the file stored under objectKey
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath, err := b.path(objectKey)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, b.notFound("download", objectKey)
	} else if err != nil {
		return nil, &folio.StorageError{Backend: backendName, Key: objectKey, Op: "download", Err: err}
	}
	return file, nil
}

// path resolves objectKey inside baseDir. Keys must be plain local names.
func (b *Backend) path(objectKey string) (string, error) {
	if !filepath.IsLocal(objectKey) || filepath.Base(objectKey) != objectKey {
		return "", &folio.StorageError{Backend: backendName, Key: objectKey, Op: "resolve", Err: folio.ErrObjectNotFound}
	}
	return filepath.Join(b.baseDir, objectKey), nil
}

func (b *Backend) notFound(op, objectKey string) error {
	return &folio.StorageError{Backend: backendName, Key: objectKey, Op: op, Err: folio.ErrObjectNotFound}
}

// detectContentType prefers the extension and falls back to sniffing the
// first 512 bytes.
func detectContentType(filePath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filePath)); ct != "" {
		return ct
	}
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}
	return contentType
}

var _ folio.BlobStore = (*Backend)(nil)
