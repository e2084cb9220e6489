package compute

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestClassifyNetworkError_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://controller:8774",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	apiErr := ClassifyNetworkError(err, "controller:8774")

	if apiErr == nil {
		t.Fatal("Expected APIError, got nil")
	}

	if apiErr.Type != ErrTypeTimeout {
		t.Errorf("Expected error type %v, got %v", ErrTypeTimeout, apiErr.Type)
	}

	if !apiErr.Retryable {
		t.Error("Expected timeout error to be retryable")
	}
}

func TestClassifyNetworkError_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://controller:8774",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.ECONNREFUSED,
		},
	}

	apiErr := ClassifyNetworkError(err, "controller:8774")

	if apiErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnectionRefused, apiErr.Type)
	}

	if !apiErr.Retryable {
		t.Error("Expected connection refused error to be retryable")
	}

	// The outer chain stays intact for errors.Is inspection.
	if !errors.Is(apiErr, syscall.ECONNREFUSED) {
		t.Error("classified error should still match syscall.ECONNREFUSED")
	}
}

func TestClassifyNetworkError_DNS(t *testing.T) {
	err := &net.DNSError{
		Err:        "no such host",
		Name:       "controller.invalid",
		IsNotFound: true,
	}

	apiErr := ClassifyNetworkError(err, "controller.invalid")

	if apiErr.Type != ErrTypeDNS {
		t.Errorf("Expected error type %v, got %v", ErrTypeDNS, apiErr.Type)
	}

	if apiErr.Retryable {
		t.Error("Expected DNS error to be non-retryable")
	}

	if !strings.Contains(apiErr.Message, "controller.invalid") {
		t.Errorf("Message = %q, want the failing name", apiErr.Message)
	}
}

func TestClassifyNetworkError_HostUnreachable(t *testing.T) {
	err := &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: syscall.EHOSTUNREACH,
	}

	apiErr := ClassifyNetworkError(err, "controller:8774")

	if apiErr.Type != ErrTypeNetwork {
		t.Errorf("Expected error type %v, got %v", ErrTypeNetwork, apiErr.Type)
	}

	if !apiErr.Retryable {
		t.Error("Expected host unreachable error to be retryable")
	}
}

func TestClassifyNetworkError_Generic(t *testing.T) {
	apiErr := ClassifyNetworkError(errors.New("something odd"), "controller:8774")

	if apiErr.Type != ErrTypeNetwork {
		t.Errorf("Expected error type %v, got %v", ErrTypeNetwork, apiErr.Type)
	}

	if !apiErr.Retryable {
		t.Error("Expected generic network error to be retryable")
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if apiErr := ClassifyNetworkError(nil, ""); apiErr != nil {
		t.Errorf("ClassifyNetworkError(nil) = %v, want nil", apiErr)
	}
}

func TestNewAPIStatusError(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		body          string
		wantMessage   string
		wantRetryable bool
	}{
		{
			name:          "bad request document",
			statusCode:    400,
			body:          `{"badRequest":{"message":"Invalid flavorRef provided.","code":400}}`,
			wantMessage:   "Invalid flavorRef provided.",
			wantRetryable: false,
		},
		{
			name:          "not found document",
			statusCode:    404,
			body:          `{"itemNotFound":{"message":"Instance could not be found.","code":404}}`,
			wantMessage:   "Instance could not be found.",
			wantRetryable: false,
		},
		{
			name:          "conflict document",
			statusCode:    409,
			body:          `{"conflictingRequest":{"message":"Cannot shelve while it is in task_state spawning.","code":409}}`,
			wantMessage:   "Cannot shelve while it is in task_state spawning.",
			wantRetryable: false,
		},
		{
			name:          "server error is retryable",
			statusCode:    503,
			body:          `{"serviceUnavailable":{"message":"Service temporarily unavailable.","code":503}}`,
			wantMessage:   "Service temporarily unavailable.",
			wantRetryable: true,
		},
		{
			name:          "too many requests is retryable",
			statusCode:    429,
			body:          `{"overLimit":{"message":"Rate limit exceeded.","code":429}}`,
			wantMessage:   "Rate limit exceeded.",
			wantRetryable: true,
		},
		{
			name:          "unparseable body falls back to status text",
			statusCode:    400,
			body:          "<html>nope</html>",
			wantMessage:   http.StatusText(400),
			wantRetryable: false,
		},
		{
			name:          "empty document falls back to status text",
			statusCode:    500,
			body:          `{}`,
			wantMessage:   http.StatusText(500),
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := newAPIStatusError(tt.statusCode, []byte(tt.body))

			if apiErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.statusCode)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if apiErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", apiErr.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	badRequest := newAPIStatusError(400, nil)
	notFound := newAPIStatusError(404, nil)
	conflict := newAPIStatusError(409, nil)

	if !IsBadRequest(badRequest) || IsBadRequest(notFound) {
		t.Error("IsBadRequest() misclassified")
	}
	if !IsNotFound(notFound) || IsNotFound(conflict) {
		t.Error("IsNotFound() misclassified")
	}
	if !IsConflict(conflict) || IsConflict(badRequest) {
		t.Error("IsConflict() misclassified")
	}

	// Helpers see through wrapping.
	wrapped := fmt.Errorf("deleting server: %w", notFound)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound() should see through fmt.Errorf wrapping")
	}

	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound() should reject non-API errors")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "network error is retryable",
			err:       &APIError{Type: ErrTypeNetwork, Retryable: true},
			retryable: true,
		},
		{
			name:      "auth error is not retryable",
			err:       &APIError{Type: ErrTypeAuth, Retryable: false},
			retryable: false,
		},
		{
			name:      "server error is retryable",
			err:       newAPIStatusError(502, nil),
			retryable: true,
		},
		{
			name:      "unknown error is not retryable",
			err:       errors.New("unknown"),
			retryable: false,
		},
		{
			name:      "nil is not retryable",
			err:       nil,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with underlying error",
			err: &APIError{
				Type:    ErrTypeNetwork,
				Message: "connection failed",
				Err:     errors.New("dial tcp: refused"),
			},
			want: "Network Error: connection failed (caused by: dial tcp: refused)",
		},
		{
			name: "with status code",
			err: &APIError{
				Type:       ErrTypeAPI,
				Message:    "Invalid host",
				StatusCode: 400,
			},
			want: "API Error: Invalid host (HTTP 400)",
		},
		{
			name: "bare",
			err: &APIError{
				Type:    ErrTypeAuth,
				Message: "token rejected",
			},
			want: "Authentication Error: token rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	apiErr := NewNetworkError("outer", inner)

	if !errors.Is(apiErr, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeNetwork, "Network Error"},
		{ErrTypeAuth, "Authentication Error"},
		{ErrTypeAPI, "API Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrTypeTimeout, "Timeout"},
		{ErrTypeConnectionRefused, "Connection Refused"},
		{ErrTypeDNS, "DNS Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.errType, got, tt.want)
		}
	}
}

func TestWaitTimeoutError_Message(t *testing.T) {
	err := &WaitTimeoutError{
		ResourceID: "abc",
		Want:       StatusActive,
		LastStatus: StatusBuild,
		Timeout:    90 * time.Second,
	}

	msg := err.Error()
	for _, part := range []string{"abc", "ACTIVE", "BUILD", "1m30s"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}

func TestServerFaultError_Message(t *testing.T) {
	withFault := &ServerFaultError{
		ServerID: "abc",
		Fault:    &Fault{Code: 500, Message: "No valid host was found."},
	}
	if !strings.Contains(withFault.Error(), "No valid host was found.") {
		t.Errorf("message %q missing fault text", withFault.Error())
	}

	bare := &ServerFaultError{ServerID: "abc"}
	if !strings.Contains(bare.Error(), "entered ERROR") {
		t.Errorf("message %q missing ERROR note", bare.Error())
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
