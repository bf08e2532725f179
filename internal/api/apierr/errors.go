package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/auth"
	"github.com/mcoot/gamepoints/internal/storage"
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
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeInvalidIdentity    = "INVALID_IDENTITY"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotOwner           = "NOT_OWNER"
	CodeOwnerNotSet        = "OWNER_NOT_SET"
	CodeOverflow           = "OVERFLOW"
	CodeRecordNotFound     = "RECORD_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
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

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Gate errors. ErrUnauthorized is checked first because a mutation
	// against a ledger with no owner wraps both it and ErrOwnerNotSet.
	case errors.Is(err, model.ErrUnauthorized):
		return &httpError{http.StatusForbidden, APIError{CodeNotOwner, "Only the ledger owner can perform this action"}}
	case errors.Is(err, model.ErrOwnerNotSet):
		return &httpError{http.StatusNotFound, APIError{CodeOwnerNotSet, "Ledger owner is not set"}}
	case errors.Is(err, model.ErrInvalidIdentity):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidIdentity, "Identity must not be empty"}}

	// Ledger errors
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Points must be greater than zero"}}
	case errors.Is(err, model.ErrOverflow):
		return &httpError{http.StatusConflict, APIError{CodeOverflow, "Balance would overflow"}}
	case errors.Is(err, model.ErrRecordNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRecordNotFound, "History record not found"}}
	case errors.Is(err, storage.ErrConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Concurrent update, retry the request"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid identity or secret"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

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

// WritePanic answers a request whose handler panicked with a JSON 500
func WritePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	WriteError(w, NewInternalError())
}
