package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folio-content/pkg/folio"
	memorystore "github.com/tendant/folio-content/pkg/folio/docstore/memory"
	fsstorage "github.com/tendant/folio-content/pkg/folio/storage/fs"
	memorystorage "github.com/tendant/folio-content/pkg/folio/storage/memory"
)

// setupHandlerTest builds the full router over in-memory backends
func setupHandlerTest(t *testing.T, opts Options, blobs folio.BlobStore) (http.Handler, *memorystore.Store) {
	t.Helper()
	store := memorystore.New()
	if blobs == nil {
		blobs = memorystorage.New()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service, err := folio.New(
		folio.WithDocumentStore(store),
		folio.WithBlobStore(blobs),
		folio.WithLogger(logger),
	)
	require.NoError(t, err)

	opts.Logger = logger
	return NewHandler(service, opts).Routes(), store
}

func doRequest(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, h, http.MethodPost, path, strings.NewReader(body), "application/json")
}

func multipartBody(t *testing.T, filename, kind string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	if kind != "" {
		require.NoError(t, mw.WriteField("kind", kind))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandler_Root(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	rr := doRequest(t, h, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Folio CMS API running"}`, rr.Body.String())
}

func TestHandler_Health(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	rr := doRequest(t, h, http.MethodGet, "/test", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var d folio.Diagnostics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, "✅ Running", d.Backend)
	assert.Equal(t, "Connected", d.ConnectionStatus)
	assert.Equal(t, []string{}, d.Collections)
}

func TestHandler_EmptyLists(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	for _, m := range folio.Models() {
		t.Run(m.Route(), func(t *testing.T) {
			rr := doRequest(t, h, http.MethodGet, "/api/"+m.Route(), nil, "")
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, `[]`, rr.Body.String())
		})
	}
}

func TestHandler_UpsertThenList(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	rr := postJSON(t, h, "/admin/upsert/project", `{"data":{"title":"Q","description":"D","tags":["physics"]}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created UpsertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.InsertedID)

	rr = doRequest(t, h, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{
		"title":"Q","description":"D","tags":["physics"],
		"cover_image":null,"demo_link":null,"modal_content":null,"category":null
	}]`, rr.Body.String())
}

func TestHandler_UpsertModelNameIsCaseInsensitive(t *testing.T) {
	h, store := setupHandlerTest(t, Options{}, nil)

	rr := postJSON(t, h, "/admin/upsert/Theme", `{"data":{}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	n, err := store.Count(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rr = doRequest(t, h, http.MethodGet, "/api/theme", nil, "")
	assert.JSONEq(t, `[{
		"primary_color":"#6EE7F9","accent_color":"#A78BFA",
		"background_variant":"dark","animation_intensity":3
	}]`, rr.Body.String())
}

func TestHandler_UpsertRejections(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"unknown model", "/admin/upsert/unicorn", `{"data":{"title":"x"}}`, http.StatusBadRequest, nil},
		{"unknown model without body", "/admin/upsert/unicorn", ``, http.StatusBadRequest, nil},
		{"missing required field", "/admin/upsert/project", `{"data":{"title":"Q"}}`, http.StatusBadRequest, []string{"description"}},
		{"wrong field type", "/admin/upsert/skill", `{"data":{"category":"Go","chips":"nope"}}`, http.StatusBadRequest, []string{"chips"}},
		{"intensity out of range", "/admin/upsert/theme", `{"data":{"animation_intensity":9}}`, http.StatusBadRequest, []string{"animation_intensity"}},
		{"missing data", "/admin/upsert/hero", `{}`, http.StatusBadRequest, []string{"data"}},
		{"empty body", "/admin/upsert/hero", ``, http.StatusBadRequest, nil},
		{"malformed json", "/admin/upsert/hero", `{"data":`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := setupHandlerTest(t, Options{}, nil)

			rr := postJSON(t, h, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)

			resp := decodeError(t, rr)
			assert.NotEmpty(t, resp.Detail)
			if tt.wantFields != nil {
				fields := make([]string, 0, len(resp.Errors))
				for _, f := range resp.Errors {
					fields = append(fields, f.Field)
				}
				assert.ElementsMatch(t, tt.wantFields, fields)
			}

			collections, err := store.Collections(context.Background(), 0)
			require.NoError(t, err)
			assert.Empty(t, collections, "rejected requests must not write")
		})
	}
}

func TestHandler_Seed(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	rr := postJSON(t, h, "/admin/seed", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var first SeedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.Equal(t, 6, first.Created["project"])
	assert.Equal(t, 1, first.Created["theme"])
	assert.Len(t, first.Created, 8)

	rr = postJSON(t, h, "/admin/seed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"created":{}}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodGet, "/api/simulators", nil, "")
	var sims []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sims))
	assert.Len(t, sims, 6)
}

func TestHandler_Quote(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)
	quotes := folio.DefaultQuotes()

	tests := []struct {
		query string
		want  string
	}{
		{"", quotes[0]},
		{"?index=0", quotes[0]},
		{"?index=3", quotes[0]},
		{"?index=4", quotes[1]},
		{"?index=-1", quotes[2]},
	}

	for _, tt := range tests {
		t.Run("index"+tt.query, func(t *testing.T) {
			rr := doRequest(t, h, http.MethodGet, "/api/quote"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, rr.Code)

			var resp QuoteResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Quote)
		})
	}

	rr := doRequest(t, h, http.MethodGet, "/api/quote?index=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ResumeUploadFlow(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)
	content := []byte("%PDF-1.4 resume")

	body, ct := multipartBody(t, "cv.pdf", "resume", content)
	rr := doRequest(t, h, http.MethodPost, "/admin/upload", body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"url":"/uploads/cv.pdf"}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodGet, "/uploads/cv.pdf", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, content, rr.Body.Bytes())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))

	rr = doRequest(t, h, http.MethodGet, "/api/resume", nil, "")
	assert.JSONEq(t, `[{"url":"/uploads/cv.pdf"}]`, rr.Body.String())
}

func TestHandler_AssetUploadFromDisk(t *testing.T) {
	blobs, err := fsstorage.New(fsstorage.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	h, store := setupHandlerTest(t, Options{}, blobs)

	body, ct := multipartBody(t, "logo.png", "", []byte("not really a png"))
	rr := doRequest(t, h, http.MethodPost, "/admin/upload", body, ct)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"url":"/uploads/logo.png"}`, rr.Body.String())

	rr = doRequest(t, h, http.MethodGet, "/uploads/logo.png", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "not really a png", rr.Body.String())
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	// local files answer range requests
	req := httptest.NewRequest(http.MethodGet, "/uploads/logo.png", nil)
	req.Header.Set("Range", "bytes=0-2")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "not", rr.Body.String())

	n, err := store.Count(context.Background(), "resume")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_UploadRejections(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		h, _ := setupHandlerTest(t, Options{}, nil)
		body, ct := multipartBody(t, "", "resume", nil)
		rr := doRequest(t, h, http.MethodPost, "/admin/upload", body, ct)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "file", resp.Errors[0].Field)
	})

	t.Run("not multipart", func(t *testing.T) {
		h, _ := setupHandlerTest(t, Options{}, nil)
		rr := postJSON(t, h, "/admin/upload", `{"file":"cv.pdf"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		h, store := setupHandlerTest(t, Options{MaxUploadBytes: 1024}, nil)
		body, ct := multipartBody(t, "big.pdf", "resume", bytes.Repeat([]byte("x"), 4096))
		rr := doRequest(t, h, http.MethodPost, "/admin/upload", body, ct)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

		n, err := store.Count(context.Background(), "resume")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestHandler_ServeUploadNotFound(t *testing.T) {
	h, _ := setupHandlerTest(t, Options{}, nil)

	rr := doRequest(t, h, http.MethodGet, "/uploads/missing.pdf", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decodeError(t, rr).Detail, "file not found")
}

func TestHandler_CorruptRecord(t *testing.T) {
	h, store := setupHandlerTest(t, Options{}, nil)

	_, err := store.Insert(context.Background(), "project", json.RawMessage(`{"title":""}`))
	require.NoError(t, err)

	rr := doRequest(t, h, http.MethodGet, "/api/projects", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	resp := decodeError(t, rr)
	assert.Contains(t, resp.Detail, "project")
	assert.Empty(t, resp.Errors)
}

func TestHandler_CORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		h, _ := setupHandlerTest(t, Options{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
		req.Header.Set("Origin", "https://portfolio.example")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("restricted origins", func(t *testing.T) {
		h, _ := setupHandlerTest(t, Options{AllowedOrigins: []string{"https://portfolio.example"}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://portfolio.example")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "https://portfolio.example", rr.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &folio.ValidationError{}, http.StatusBadRequest},
		{"invalid model", fmt.Errorf("%w: %q", folio.ErrInvalidModel, "x"), http.StatusBadRequest},
		{"invalid request", folio.ErrInvalidRequest, http.StatusBadRequest},
		{"not found", folio.ErrUploadNotFound, http.StatusNotFound},
		{"too large", folio.ErrUploadTooLarge, http.StatusRequestEntityTooLarge},
		{"max bytes", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"corrupt", &folio.CorruptRecordError{Collection: "hero", Err: &folio.ValidationError{}}, http.StatusInternalServerError},
		{"unavailable", folio.Unavailable(errors.New("dial tcp")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	h := NewHandler(nil, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	tests := []struct {
		err  error
		want string
	}{
		{errors.New("pq: password authentication failed"), "internal server error"},
		{&folio.StoreError{Backend: "mongo", Op: "list", Err: folio.Unavailable(errors.New("no reachable servers"))}, "document store unavailable"},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.writeError(rr, httptest.NewRequest(http.MethodGet, "/api/hero", nil), tt.err)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, tt.want, decodeError(t, rr).Detail)
	}
}
