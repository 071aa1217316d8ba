// Package domain provides the canonical message model shared by all
// provider translators, along with its error types.
package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnsupported is returned by translators for capabilities their provider
// does not offer. It is deterministic and never transient.
var ErrUnsupported = errors.New("operation not supported")

// ErrorType represents the category of a provider error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates a permission/authorization failure.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeNotFound indicates a resource was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeRateLimit indicates rate limiting was triggered.
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeOverloaded indicates the service is overloaded.
	ErrorTypeOverloaded ErrorType = "overloaded"

	// ErrorTypeServer indicates an upstream server error.
	ErrorTypeServer ErrorType = "server"
)

// APIError is a transport-level failure: the provider answered with a
// non-2xx status. Detail holds the response body, re-serialized JSON when it
// parsed and raw text otherwise.
type APIError struct {
	Type       ErrorType
	Provider   string
	StatusCode int
	Status     string
	Detail     string
}

// NewAPIError builds an APIError and classifies it by status code.
func NewAPIError(provider string, statusCode int, status, detail string) *APIError {
	return &APIError{
		Type:       ClassifyStatus(statusCode),
		Provider:   provider,
		StatusCode: statusCode,
		Status:     status,
		Detail:     detail,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s API error (%s): %s", e.Provider, e.Type, status)
	}
	return fmt.Sprintf("%s API error (%s): %s: %s", e.Provider, e.Type, status, e.Detail)
}

// ErrorFromResponse builds an APIError from a non-2xx response body. A body
// that parses as JSON is re-serialized compactly; anything else is kept as
// raw text.
func ErrorFromResponse(provider string, statusCode int, status string, body []byte) *APIError {
	detail := strings.TrimSpace(string(body))
	var parsed any
	if err := json.Unmarshal(body, &parsed); err == nil {
		if b, err := json.Marshal(parsed); err == nil {
			detail = string(b)
		}
	}
	return NewAPIError(provider, statusCode, status, detail)
}

// ClassifyStatus maps an HTTP status code to an error category.
func ClassifyStatus(code int) ErrorType {
	switch {
	case code == http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case code == http.StatusForbidden:
		return ErrorTypePermission
	case code == http.StatusNotFound:
		return ErrorTypeNotFound
	case code == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case code == http.StatusServiceUnavailable || code == 529:
		return ErrorTypeOverloaded
	case code >= 400 && code < 500:
		return ErrorTypeInvalidRequest
	default:
		return ErrorTypeServer
	}
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// RequestError wraps a network failure. When the caller's context ended it
// wraps the context error so errors.Is(err, context.Canceled) holds.
func RequestError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s request canceled: %w", provider, ctxErr)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}
