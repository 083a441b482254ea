package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ErrNotFound marks lookups that matched nothing. Errors wrapping it are
// rendered as 404.
var ErrNotFound = errors.New("not found")

// ErrorHandler converts handler errors into rendered APIErrors
type ErrorHandler struct {
	logger   *slog.Logger
	notFound []error
}

// NewErrorHandler creates a new error handler. Errors matching any of
// notFound, in addition to ErrNotFound, render as 404.
func NewErrorHandler(logger *slog.Logger, notFound ...error) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:   logger.With(slog.String("component", "error_handler")),
		notFound: append([]error{ErrNotFound}, notFound...),
	}
}

// HandleError logs err and renders it
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	apiErr := h.ToAPIError(err)
	apiErr.TraceID = middleware.GetReqID(r.Context())

	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("error_code", apiErr.ErrorCode),
		slog.Int("status", apiErr.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	if renderErr := render.Render(w, r, apiErr); renderErr != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error", slog.String("error", renderErr.Error()))
	}
}

// ToAPIError maps err onto an APIError
func (h *ErrorHandler) ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		cp := *apiErr
		return &cp
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout()
	}

	for _, target := range h.notFound {
		if errors.Is(err, target) {
			return New(http.StatusNotFound, CodeNotFound, err.Error())
		}
	}

	return Internal()
}
