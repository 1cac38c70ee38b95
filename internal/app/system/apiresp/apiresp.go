// Package apiresp writes JSON responses and maps errors to HTTP statuses.
package apiresp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/authz"
	"github.com/dalemusser/taskhub/internal/app/system/limits"
	"go.uber.org/zap"
)

// ErrBadRequest marks malformed or invalid input (HTTP 400).
var ErrBadRequest = errors.New("bad request")

// ErrTooManyRequests marks a caller that exceeded an attempt limit (HTTP 429).
var ErrTooManyRequests = errors.New("too many attempts, try again later")

// BadRequest returns an error wrapping ErrBadRequest with a client-facing message.
func BadRequest(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }
func (e *badRequest) Unwrap() error { return ErrBadRequest }

type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, authz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a JSON error body. Server errors are logged and
// their detail withheld from the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		msg = "internal error"
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusForbidden:
		msg = "forbidden"
	}
	WriteJSON(w, status, errorBody{Error: msg})
}

// DecodeJSON reads a JSON body of at most limits.MaxJSONBody into v,
// rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	return DecodeJSONLimit(r, v, limits.MaxJSONBody)
}

// DecodeJSONLimit is DecodeJSON with an explicit size bound.
func DecodeJSONLimit(r *http.Request, v any, max int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, max))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return BadRequest("invalid JSON body: %v", err)
	}
	return nil
}
