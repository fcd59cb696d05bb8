package notifier

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notifykit/notifykit/pkg/binder"
	"github.com/notifykit/notifykit/pkg/dispatch"
	"github.com/notifykit/notifykit/pkg/logger"
	"github.com/notifykit/notifykit/pkg/notification"
	"github.com/notifykit/notifykit/pkg/queue"
	"github.com/notifykit/notifykit/pkg/template"
)

// JSONResponse is the standard response envelope.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries machine-readable error information.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respond(w, status, JSONResponse{Data: data})
}

// respondError maps domain sentinel errors to HTTP status codes. Anything
// unrecognized is a 500 and gets logged; client errors are the caller's
// problem and stay at debug level.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", logger.Error(err))
	}
	respond(w, status, JSONResponse{Error: &ErrorDetail{Code: code, Message: err.Error()}})
}

func classifyError(err error) (status int, code string) {
	switch {
	case errors.Is(err, template.ErrTemplateNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, notification.ErrLogNotFound),
		errors.Is(err, queue.ErrJobNotFound):
		return http.StatusNotFound, "not_found"

	case errors.Is(err, template.ErrTemplateExists):
		return http.StatusConflict, "already_exists"

	case errors.Is(err, notification.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"

	case errors.Is(err, dispatch.ErrValidationFailed),
		errors.Is(err, dispatch.ErrChannelMismatch),
		errors.Is(err, dispatch.ErrMissingVariables),
		errors.Is(err, queue.ErrScheduleInPast),
		errors.Is(err, template.ErrTemplateInvalid),
		errors.Is(err, template.ErrTemplateSyntax),
		errors.Is(err, notification.ErrInvalidStatus),
		errors.Is(err, notification.ErrInvalidPriority),
		errors.Is(err, notification.ErrNoChannels),
		errors.Is(err, binder.ErrInvalidJSON),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrInvalidForm),
		errors.Is(err, binder.ErrFailedToParseForm),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrFailedToParsePath),
		errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusBadRequest, "bad_request"

	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
