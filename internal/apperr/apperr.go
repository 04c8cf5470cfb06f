// Package apperr defines the error kinds surfaced by the service layer.
// Handlers map kinds to HTTP status codes; everything else wraps with %w so
// errors.Is keeps working across layers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotFound              = errors.New("not found")
	ErrCycleDetected         = errors.New("move would create a cycle")
	ErrUnsupportedMediaType  = errors.New("unsupported media type")
	ErrParseFailed           = errors.New("document parse failed")
	ErrEmbeddingUnavailable  = errors.New("embedding provider unavailable")
	ErrGenerationUnavailable = errors.New("generation provider unavailable")
)

// InvalidArgumentf wraps ErrInvalidArgument with a formatted detail message.
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// ParseFailedf wraps ErrParseFailed with a formatted detail message.
func ParseFailedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrParseFailed, fmt.Sprintf(format, args...))
}

// HTTPStatus returns the status code a handler should respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrCycleDetected):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrParseFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGenerationUnavailable), errors.Is(err, ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
