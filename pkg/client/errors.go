package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the error envelope of a failed API request
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%d %s [%s]: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Code, e.Message)
}

// AsAPIError unwraps err to the API error it carries, if any
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }

// IsValidationError reports a rejected request body or query
func (e *APIError) IsValidationError() bool { return e.StatusCode == http.StatusBadRequest }

// IsServerError reports a 5xx response
func (e *APIError) IsServerError() bool { return e.StatusCode >= http.StatusInternalServerError }
