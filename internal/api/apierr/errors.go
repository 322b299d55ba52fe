package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/jobs"
	"github.com/mcoot/crcon-linkbot/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeLinkNotFound       = "LINK_NOT_FOUND"
	CodeInvalidMetric      = "INVALID_METRIC"
	CodeJobNotFound        = "JOB_NOT_FOUND"
	CodeJobRunning         = "JOB_RUNNING"
	CodeConsoleAuthFailed  = "CONSOLE_AUTH_FAILED"
	CodeConsoleUnavailable = "CONSOLE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var authErr *console.AuthError

	switch {
	// Domain errors
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Player name must not be empty"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrLinkNotFound), errors.Is(err, model.ErrNotLinked):
		return &httpError{http.StatusNotFound, APIError{CodeLinkNotFound, "Link not found"}}
	case errors.Is(err, model.ErrInvalidMetric):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidMetric, "Unknown leaderboard metric"}}

	// Scheduler errors
	case errors.Is(err, jobs.ErrUnknownJob):
		return &httpError{http.StatusNotFound, APIError{CodeJobNotFound, "Job not found"}}
	case errors.Is(err, jobs.ErrJobRunning):
		return &httpError{http.StatusConflict, APIError{CodeJobRunning, "Job is already running"}}

	// Console errors. Details stay in the logs.
	case errors.As(err, &authErr):
		return &httpError{http.StatusBadGateway, APIError{CodeConsoleAuthFailed, "Could not authenticate with the game server"}}
	case console.IsUnavailable(err):
		return &httpError{http.StatusBadGateway, APIError{CodeConsoleUnavailable, "The game server might be temporarily unavailable"}}
	case errors.Is(err, context.DeadlineExceeded):
		return &httpError{http.StatusGatewayTimeout, APIError{CodeTimeout, "Request timed out"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
