package shared

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// UpstreamAuthError is returned when the provider's token endpoint rejects an exchange
// (expired code, revoked refresh token, malformed request).
//
// Body holds the provider's error payload verbatim so it can be relayed without interpretation.
type UpstreamAuthError struct {
	Status int
	Body   json.RawMessage
}

// NewUpstreamAuthError builds an [UpstreamAuthError], wrapping a non-JSON body as a JSON string.
func NewUpstreamAuthError(status int, body []byte) *UpstreamAuthError {
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		body = quoted
	}
	return &UpstreamAuthError{Status: status, Body: json.RawMessage(body)}
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("upstream rejected token request: status %d: %s", e.Status, string(e.Body))
}

// Is reports [ErrAuthFailed] as a match so callers can test with [errors.Is].
func (e *UpstreamAuthError) Is(target error) bool {
	return target == ErrAuthFailed
}

// ConfigurationError reports a missing or invalid server-side setting.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s is not set", ErrMissingCredentials, e.Field)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingCredentials || target == ErrInvalidConfig
}

// NetworkError wraps a transport failure reaching a remote service.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is or wraps a [NetworkError].
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
