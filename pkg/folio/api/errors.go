package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/tendant/folio-content/pkg/folio"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string             `json:"detail"`
	Errors []folio.FieldError `json:"errors,omitempty"`
}

// statusFor maps service errors to HTTP status codes. Corrupt records are
// checked first: they also wrap the underlying validation error.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, folio.ErrCorruptRecord):
		return http.StatusInternalServerError
	case errors.Is(err, folio.ErrUploadTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, folio.ErrValidation),
		errors.Is(err, folio.ErrInvalidModel),
		errors.Is(err, folio.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, folio.ErrUploadNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Detail: err.Error()}

	var verr *folio.ValidationError
	if status == http.StatusBadRequest && errors.As(err, &verr) {
		resp.Errors = verr.Fields
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		switch {
		case errors.Is(err, folio.ErrCorruptRecord):
			// keep the message: it names the offending collection
		case errors.Is(err, folio.ErrStoreUnavailable):
			resp.Detail = folio.ErrStoreUnavailable.Error()
		default:
			resp.Detail = "internal server error"
		}
	} else {
		h.logger.Warn("Request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
