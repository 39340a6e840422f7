package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/folio-content/pkg/folio"
)

const (
	defaultMaxUploadBytes = 32 << 20
	defaultRequestTimeout = 60 * time.Second

	// multipart parts above this size spill to temporary files
	multipartMemory = 8 << 20
)

// Options configures the HTTP surface
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Handler serves the public content API, the admin API and the health
// endpoint on top of a folio.Service.
type Handler struct {
	service        folio.Service
	logger         *slog.Logger
	allowedOrigins []string
	maxUploadBytes int64
	requestTimeout time.Duration
}

func NewHandler(service folio.Service, opts Options) *Handler {
	h := &Handler{
		service:        service,
		logger:         opts.Logger,
		allowedOrigins: opts.AllowedOrigins,
		maxUploadBytes: opts.MaxUploadBytes,
		requestTimeout: opts.RequestTimeout,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUploadBytes
	}
	if h.requestTimeout <= 0 {
		h.requestTimeout = defaultRequestTimeout
	}
	return h
}

// Routes returns the complete router including middleware
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(h.allowedOrigins))
	r.Use(middleware.Timeout(h.requestTimeout))

	r.Get("/", h.Root)
	r.Get("/test", h.Health)
	r.Get("/uploads/{filename}", h.ServeUpload)

	r.Route("/api", func(r chi.Router) {
		for _, m := range folio.Models() {
			r.Get("/"+m.Route(), h.ListModel(m))
		}
		r.Get("/quote", h.Quote)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/upsert/{model}", h.Upsert)
		r.With(LimitBody(h.maxUploadBytes)).Post("/upload", h.Upload)
		r.Post("/seed", h.Seed)
	})

	return r
}

// Root is the liveness message
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "Folio CMS API running"})
}

// Health reports store connectivity. It always answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Diagnose(r.Context()))
}

// ListModel returns a handler listing every record of m
func (h *Handler) ListModel(m folio.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := h.service.List(r.Context(), m)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		render.JSON(w, r, records)
	}
}

// QuoteResponse is the body of GET /api/quote
type QuoteResponse struct {
	Quote string `json:"quote"`
}

// Quote serves one quote; index defaults to 0 and wraps around
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	index := 0
	if raw := r.URL.Query().Get("index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: index must be an integer", folio.ErrInvalidRequest))
			return
		}
		index = n
	}
	render.JSON(w, r, QuoteResponse{Quote: h.service.Quote(index)})
}

// UpsertRequest is the body of POST /admin/upsert/{model}
type UpsertRequest struct {
	Data json.RawMessage `json:"data"`
}

// UpsertResponse carries the generated record identifier
type UpsertResponse struct {
	InsertedID string `json:"inserted_id"`
}

// Upsert validates and inserts one record of the named model
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	modelName := chi.URLParam(r, "model")
	if _, err := folio.ParseModel(modelName); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %q", err, modelName))
		return
	}

	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		h.writeError(w, r, fmt.Errorf("%w: %v", folio.ErrInvalidRequest, err))
		return
	}

	id, err := h.service.Upsert(r.Context(), modelName, req.Data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, UpsertResponse{InsertedID: id})
}

// UploadResponse is the body of POST /admin/upload
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload stores the multipart "file" field; "kind" selects asset or resume
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.writeError(w, r, fmt.Errorf("%w: limit is %d bytes", folio.ErrUploadTooLarge, maxBytes.Limit))
			return
		}
		h.writeError(w, r, fmt.Errorf("%w: %w", folio.ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, &folio.ValidationError{Fields: []folio.FieldError{{Field: "file", Message: "field required"}}})
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), folio.UploadRequest{
		Filename: header.Filename,
		Kind:     r.FormValue("kind"),
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, UploadResponse{URL: result.URL})
}

// ServeUpload streams a previously uploaded file
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	rc, meta, err := h.service.OpenUpload(r.Context(), filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	if meta.ContentType != "" {
		w.Header().Set("Content-Type", meta.ContentType)
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", strconv.Quote(meta.ETag))
	}

	// local files support range requests and conditional GETs
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, meta.Key, meta.UpdatedAt, rs)
		return
	}

	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Upload stream interrupted", "filename", filename, "error", err)
	}
}

// SeedResponse lists the collections populated by this call
type SeedResponse struct {
	Created map[string]int `json:"created"`
}

// Seed fills empty collections with example content
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.Seed(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, SeedResponse{Created: created})
}
