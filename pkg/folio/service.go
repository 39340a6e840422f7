package folio

import (
	"context"
	"encoding/json"
	"io"
)

// Service defines the main interface for the folio library
type Service interface {
	// Content operations
	List(ctx context.Context, model Model) ([]Record, error)
	Count(ctx context.Context, model Model) (int64, error)
	Upsert(ctx context.Context, modelName string, data json.RawMessage) (string, error)

	// Upload operations
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	OpenUpload(ctx context.Context, filename string) (io.ReadCloser, *ObjectMeta, error)

	// Admin operations
	Seed(ctx context.Context) (map[string]int, error)

	// Public helpers
	Quote(index int) string
	Diagnose(ctx context.Context) Diagnostics
}

// Upload kinds with special handling
const (
	UploadKindAsset  = "asset"
	UploadKindResume = "resume"
)

// UploadRequest describes a file sent to the upload area
type UploadRequest struct {
	Filename string
	Kind     string
	MimeType string
	Body     io.Reader
}

// UploadResult is returned after a successful upload
type UploadResult struct {
	URL      string
	Filename string
	Kind     string
	Size     int64
	// ResumeID is set when the upload also created a Resume record
	ResumeID string
}

// Diagnostics is the connectivity report served by the health endpoint.
// Every field is a human-readable status string.
type Diagnostics struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
	DatabaseType     string   `json:"database_type"`
}

// DatabaseSettings records which connection settings were present in the
// environment at startup.
type DatabaseSettings struct {
	URLSet  bool
	NameSet bool
}
