package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alphagov/rummager/internal/domain"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeInvalidQuery     = "invalid_query"
	codeDocumentNotFound = "document_not_found"
	codeIndexLocked      = "index_locked"
	codeEngineError      = "engine_error"
	codeInternalError    = "internal_error"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidQueryHandler maps engine-rejected queries to 422, keeping the
// specific wrapper message when one is present.
func invalidQueryHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	var tooLong *domain.QueryTooLongError
	if errors.As(err, &tooLong) {
		writeError(w, http.StatusUnprocessableEntity, codeInvalidQuery, tooLong.Error())
		return true
	}
	var outOfRange *domain.NumberOutOfRangeError
	if errors.As(err, &outOfRange) {
		writeError(w, http.StatusUnprocessableEntity, codeInvalidQuery, outOfRange.Error())
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, codeInvalidQuery, msg)
	return true
}

// fieldErrorHandler handles the schema-violation wrapper errors raised
// while amending documents.
func fieldErrorHandler(w http.ResponseWriter, err error, _ string) bool {
	var unknown *domain.UnknownFieldError
	if errors.As(err, &unknown) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, unknown.Error())
		return true
	}
	var immutable *domain.ImmutableFieldError
	if errors.As(err, &immutable) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, immutable.Error())
		return true
	}
	return false
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrIndexLocked,
		domain.ErrInvalidQuery,
		domain.ErrEngineUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
