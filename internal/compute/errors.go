package compute

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"time"
)

// ErrorType represents the category of a compute API failure
type ErrorType int

const (
	// ErrTypeNetwork indicates a transport-level error (connection refused, timeout, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates the token was rejected
	ErrTypeAuth
	// ErrTypeAPI indicates the API returned an error status
	ErrTypeAPI
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the endpoint refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeAPI:
		return "API Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError represents a failure of one compute API request.
type APIError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Endpoint   string    // Endpoint the request went to (for context)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the request may be retried
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more specific
// error type.
func ClassifyNetworkError(err error, endpoint string) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) {
		return &APIError{
			Type:      ErrTypeTimeout,
			Message:   "Request timed out",
			Err:       err,
			Endpoint:  endpoint,
			Retryable: true,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{
			Type:      ErrTypeDNS,
			Message:   fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:       err,
			Endpoint:  endpoint,
			Retryable: false,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &APIError{
				Type:      ErrTypeConnectionRefused,
				Message:   "Endpoint refused connection",
				Err:       err,
				Endpoint:  endpoint,
				Retryable: true,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) || errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &APIError{
				Type:      ErrTypeNetwork,
				Message:   "Endpoint unreachable",
				Err:       err,
				Endpoint:  endpoint,
				Retryable: true,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// Classify the wrapped error, keeping the outer chain intact.
		classified := ClassifyNetworkError(urlErr.Err, endpoint)
		classified.Err = err
		return classified
	}

	return &APIError{
		Type:      ErrTypeNetwork,
		Message:   "Network error occurred",
		Err:       err,
		Endpoint:  endpoint,
		Retryable: true,
	}
}

// NewNetworkError creates a transport-level error with automatic classification
func NewNetworkError(message string, err error) *APIError {
	classified := ClassifyNetworkError(err, "")
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &APIError{
		Type:      ErrTypeNetwork,
		Message:   message,
		Err:       err,
		Retryable: true,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *APIError {
	return &APIError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Retryable:  false,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *APIError {
	return &APIError{
		Type:      ErrTypeParse,
		Message:   message,
		Err:       err,
		Retryable: false,
	}
}

// newAPIStatusError builds an *APIError from an error response body.
// Compute error documents wrap the details in a single keyed object, for
// example {"badRequest": {"message": "...", "code": 400}}; the key varies
// with the status, so take the message from whichever object is present.
func newAPIStatusError(statusCode int, body []byte) *APIError {
	message := http.StatusText(statusCode)

	var doc map[string]struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		for _, payload := range doc {
			if payload.Message != "" {
				message = payload.Message
				break
			}
		}
	}

	return &APIError{
		Type:       ErrTypeAPI,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == http.StatusTooManyRequests,
	}
}

// statusCodeIs reports whether err carries the given HTTP status anywhere in
// its chain.
func statusCodeIs(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}

// IsBadRequest checks if an error is an HTTP 400 from the API
func IsBadRequest(err error) bool {
	return statusCodeIs(err, http.StatusBadRequest)
}

// IsNotFound checks if an error is an HTTP 404 from the API
func IsNotFound(err error) bool {
	return statusCodeIs(err, http.StatusNotFound)
}

// IsConflict checks if an error is an HTTP 409 from the API
func IsConflict(err error) bool {
	return statusCodeIs(err, http.StatusConflict)
}

// IsAuthError checks if an error is an authentication failure
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeAuth
	}
	return false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS, etc.)
func IsNetworkError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeNetwork ||
			apiErr.Type == ErrTypeTimeout ||
			apiErr.Type == ErrTypeConnectionRefused ||
			apiErr.Type == ErrTypeDNS
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrTypeParse
	}
	return false
}

// IsRetryable checks if a request that failed with err may be retried
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// WaitTimeoutError reports a waiter that ran out its budget before the
// resource reached the wanted status.
type WaitTimeoutError struct {
	ResourceID string
	Want       string
	LastStatus string
	Timeout    time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("resource %s did not reach status %s within %s (last status: %s)",
		e.ResourceID, e.Want, e.Timeout, e.LastStatus)
}

// ServerFaultError reports a server that entered ERROR while a waiter was
// expecting some other status. Waiters fail fast on it instead of burning
// the rest of their budget.
type ServerFaultError struct {
	ServerID string
	Fault    *Fault
}

func (e *ServerFaultError) Error() string {
	if e.Fault != nil && e.Fault.Message != "" {
		return fmt.Sprintf("server %s entered ERROR: %s (code %d)", e.ServerID, e.Fault.Message, e.Fault.Code)
	}
	return fmt.Sprintf("server %s entered ERROR", e.ServerID)
}

// VolumeFaultError reports a volume that entered the error state while a
// waiter was expecting some other status.
type VolumeFaultError struct {
	VolumeID string
}

func (e *VolumeFaultError) Error() string {
	return fmt.Sprintf("volume %s entered error state", e.VolumeID)
}
