package folio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"sync"
)

// service implements the Service interface
type service struct {
	store    DocumentStore
	blobs    BlobStore
	cache    ListCache
	logger   *slog.Logger
	quotes   []string
	seed     map[Model][]Record
	seedDocs map[Model][]json.RawMessage
	settings DatabaseSettings

	// cacheMu orders cache fills against invalidations. generations counts
	// invalidations per collection so a fill that raced an insert is dropped.
	cacheMu     sync.Mutex
	generations map[string]uint64
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithDocumentStore sets the document store for the service
func WithDocumentStore(store DocumentStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithBlobStore sets the upload storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithCache sets the list cache
func WithCache(cache ListCache) Option {
	return func(s *service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQuotes replaces the quote list served by Quote
func WithQuotes(quotes []string) Option {
	return func(s *service) {
		s.quotes = append([]string(nil), quotes...)
	}
}

// WithSeedData replaces the records inserted by Seed
func WithSeedData(seed map[Model][]Record) Option {
	return func(s *service) {
		s.seed = seed
	}
}

// WithDatabaseSettings records which database settings were configured
func WithDatabaseSettings(settings DatabaseSettings) Option {
	return func(s *service) {
		s.settings = settings
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		cache:  NewNoopCache(),
		logger: slog.Default(),
		quotes: DefaultQuotes(),
		seed:   DefaultSeedData(),

		generations: make(map[string]uint64),
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	seedDocs, err := encodeSeed(s.seed)
	if err != nil {
		return nil, err
	}
	s.seedDocs = seedDocs

	return s, nil
}

// Content operations

func (s *service) List(ctx context.Context, model Model) ([]Record, error) {
	if !model.IsValid() {
		return nil, ErrInvalidModel
	}
	collection := model.Collection()

	docs, err := s.documents(ctx, collection)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(docs))
	for i, doc := range docs {
		rec, err := Validate(model, doc)
		if err != nil {
			return nil, &CorruptRecordError{Collection: collection, Index: i, Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count reports how many documents the store holds for model without
// decoding them.
func (s *service) Count(ctx context.Context, model Model) (int64, error) {
	if !model.IsValid() {
		return 0, ErrInvalidModel
	}
	return s.store.Count(ctx, model.Collection())
}

func (s *service) documents(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if docs, ok, err := s.cache.Get(ctx, collection); err != nil {
		s.logger.Warn("List cache read failed", "collection", collection, "error", err)
	} else if ok {
		return docs, nil
	}

	s.cacheMu.Lock()
	gen := s.generations[collection]
	s.cacheMu.Unlock()

	docs, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, collection, gen, docs)
	return docs, nil
}

// fill caches docs unless collection was invalidated after they were read.
func (s *service) fill(ctx context.Context, collection string, gen uint64, docs []json.RawMessage) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generations[collection] != gen {
		s.logger.Debug("Skipping stale list cache fill", "collection", collection)
		return
	}
	if err := s.cache.Set(ctx, collection, docs); err != nil {
		s.logger.Warn("List cache write failed", "collection", collection, "error", err)
	}
}

func (s *service) Upsert(ctx context.Context, modelName string, data json.RawMessage) (string, error) {
	model, err := ParseModel(modelName)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, modelName)
	}

	rec, err := Validate(model, data)
	if err != nil {
		return "", err
	}

	return s.insert(ctx, rec)
}

func (s *service) insert(ctx context.Context, rec Record) (string, error) {
	doc, err := EncodeRecord(rec)
	if err != nil {
		return "", err
	}

	collection := rec.Model().Collection()
	id, err := s.store.Insert(ctx, collection, doc)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, collection)

	s.logger.Info("Record inserted", "collection", collection, "id", id)
	return id, nil
}

func (s *service) invalidate(ctx context.Context, collection string) {
	s.cacheMu.Lock()
	s.generations[collection]++
	s.cacheMu.Unlock()

	if err := s.cache.Invalidate(ctx, collection); err != nil {
		s.logger.Warn("List cache invalidation failed", "collection", collection, "error", err)
	}
}

// Upload operations

func (s *service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	name, err := SanitizeFilename(req.Filename)
	if err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidRequest)
	}

	mimeType := req.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
			mimeType = byExt
		}
	}

	body := &countingReader{r: req.Body}
	if err := s.blobs.UploadWithParams(ctx, body, UploadParams{ObjectKey: name, MimeType: mimeType}); err != nil {
		return nil, err
	}

	result := &UploadResult{
		URL:      UploadURLPrefix + name,
		Filename: name,
		Kind:     NormalizeKind(req.Kind),
		Size:     body.n,
	}

	if result.Kind == UploadKindResume {
		resume := &Resume{URL: result.URL}
		if err := ValidateRecord(resume); err != nil {
			return nil, err
		}
		id, err := s.insert(ctx, resume)
		if err != nil {
			return nil, err
		}
		result.ResumeID = id
	}

	s.logger.Info("File uploaded", "filename", name, "kind", result.Kind, "mime_type", mimeType, "size", result.Size)
	return result, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *service) OpenUpload(ctx context.Context, filename string) (io.ReadCloser, *ObjectMeta, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return nil, nil, err
	}

	meta, err := s.blobs.GetObjectMeta(ctx, name)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUploadNotFound, name)
		}
		return nil, nil, err
	}

	rc, err := s.blobs.Download(ctx, name)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrUploadNotFound, name)
		}
		return nil, nil, err
	}
	return rc, meta, nil
}

// Admin operations

func (s *service) Seed(ctx context.Context) (map[string]int, error) {
	created := make(map[string]int)

	for _, model := range modelOrder {
		docs := s.seedDocs[model]
		if len(docs) == 0 {
			continue
		}

		collection := model.Collection()
		n, err := s.store.InsertIfEmpty(ctx, collection, docs)
		if err != nil {
			return created, err
		}
		if n > 0 {
			created[collection] = n
			s.invalidate(ctx, collection)
			s.logger.Info("Collection seeded", "collection", collection, "count", n)
		}
	}

	return created, nil
}

// encodeSeed validates seed records once so Seed only performs store calls.
func encodeSeed(seed map[Model][]Record) (map[Model][]json.RawMessage, error) {
	out := make(map[Model][]json.RawMessage, len(seed))
	for model, records := range seed {
		if !model.IsValid() {
			return nil, fmt.Errorf("seed data: %w: %q", ErrInvalidModel, model)
		}
		for _, rec := range records {
			if rec.Model() != model {
				return nil, fmt.Errorf("seed data: %s record listed under %s", rec.Model(), model)
			}
			if err := ValidateRecord(rec); err != nil {
				return nil, fmt.Errorf("seed data for %s: %w", model, err)
			}
			doc, err := EncodeRecord(rec)
			if err != nil {
				return nil, err
			}
			out[model] = append(out[model], doc)
		}
	}
	return out, nil
}

// Quote returns the quote at index, wrapping in both directions.
func (s *service) Quote(index int) string {
	n := len(s.quotes)
	if n == 0 {
		return ""
	}
	return s.quotes[((index%n)+n)%n]
}
