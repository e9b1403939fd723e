package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/relview"
	"github.com/aretw0/relview/pkg/domain"
)

// ErrorCode classifies API errors.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// JSON writes data with status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error writes the error envelope.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteResponse writes a view response.
func WriteResponse(w http.ResponseWriter, resp *relview.Response) {
	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	JSON(w, status, resp.Body)
}

// HandleError maps err to an HTTP error response.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var cfgErr *relview.ConfigError
	switch {
	case errors.Is(err, domain.ErrRouteNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.As(err, &cfgErr),
		errors.Is(err, domain.ErrMissingCallback),
		errors.Is(err, domain.ErrNilResult),
		errors.Is(err, domain.ErrInvalidFinalResponse),
		errors.Is(err, domain.ErrInvalidValueList):
		logger.Error("view configuration error", "err", err)
		Error(w, http.StatusInternalServerError, ErrCodeConfiguration, "internal server error")
	default:
		logger.Error("internal error", "err", err)
		Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

var errNilResponse = errors.New("handler returned no response")
