package folio

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrValidation indicates a payload did not match its model schema
	ErrValidation = errors.New("validation failed")

	// ErrInvalidModel indicates an unknown model name
	ErrInvalidModel = errors.New("invalid model")

	// ErrInvalidRequest indicates a malformed request outside of schema validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUploadNotFound indicates an uploaded file does not exist
	ErrUploadNotFound = errors.New("file not found")

	// ErrUploadTooLarge indicates an upload exceeded the configured size limit
	ErrUploadTooLarge = errors.New("upload too large")

	// ErrStoreUnavailable indicates the document store could not be reached
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrCorruptRecord indicates a stored record no longer matches its schema
	ErrCorruptRecord = errors.New("stored record failed validation")

	// ErrObjectNotFound is returned by blob stores for missing keys
	ErrObjectNotFound = errors.New("object not found")
)

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level failure for one payload.
type ValidationError struct {
	Model  Model
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	if e.Model == "" {
		return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Model, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StoreError represents an error related to document store operations
type StoreError struct {
	Backend    string
	Collection string
	Op         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed for collection %s: %v", e.Backend, e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err so that errors.Is(err, ErrStoreUnavailable) holds.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// CorruptRecordError names the collection holding a record that failed validation on read.
type CorruptRecordError struct {
	Collection string
	Index      int
	Err        error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("collection %s: record %d failed validation: %v", e.Collection, e.Index, e.Err)
}

func (e *CorruptRecordError) Unwrap() []error {
	return []error{ErrCorruptRecord, e.Err}
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
