// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Retry string `json:"retry"`
}

// Status maps an error kind to its HTTP status.
func Status(err error) int {
	switch apperr.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "authentication":
		return http.StatusUnauthorized
	case "credential":
		return http.StatusPreconditionFailed
	case "authorization":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "conflict":
		return http.StatusConflict
	case "external":
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ErrorLogger writes error responses and logs the ones worth logging.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{log: logger}
}

// Write renders err as JSON. Unclassified errors become a generic 500 and
// keep their detail in the log only.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	body := Body{Error: apperr.Message(err), Kind: apperr.Kind(err), Retry: apperr.Retry(err)}

	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("actor", actor.Email(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	switch {
	case status == http.StatusInternalServerError:
		body.Error = "internal error"
		e.log.Error("request failed", fields...)
	case status == http.StatusBadGateway:
		e.log.Warn("upstream failure", fields...)
	default:
		e.log.Debug("request rejected", fields...)
	}
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}
	api.JSON(w, status, body)
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusNotFound, Body{Error: "route not found", Kind: "not_found", Retry: apperr.RetryFixInput})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusMethodNotAllowed, Body{Error: "method not allowed", Kind: "validation", Retry: apperr.RetryFixInput})
}
