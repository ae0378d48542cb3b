package llmclient

import (
	"errors"
	"testing"
)

func TestErrorFromStatusCode(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "invalid_request", false},
		{422, "invalid_request", false},
		{401, "authentication", false},
		{403, "access_denied", false},
		{404, "not_found", false},
		{413, "context_length", false},
		{429, "rate_limit", true},
		{500, "server", true},
		{502, "server", true},
		{503, "server", true},
		{504, "server", true},
		{418, "provider", true},
	}

	for _, tc := range cases {
		err := ErrorFromStatusCode(tc.status, "boom", "openrouter", "", nil)
		if err == nil {
			t.Fatalf("status %d: expected an error", tc.status)
		}

		var gotType string
		switch err.(type) {
		case *InvalidRequestError:
			gotType = "invalid_request"
		case *AuthenticationError:
			gotType = "authentication"
		case *AccessDeniedError:
			gotType = "access_denied"
		case *NotFoundError:
			gotType = "not_found"
		case *ContextLengthError:
			gotType = "context_length"
		case *RateLimitError:
			gotType = "rate_limit"
		case *ServerError:
			gotType = "server"
		case *ProviderError:
			gotType = "provider"
		}
		if gotType != tc.wantType {
			t.Errorf("status %d: expected %s, got %s (%T)", tc.status, tc.wantType, gotType, err)
		}
		if IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
	}
}

func TestErrorFromStatusCodeTimeout(t *testing.T) {
	err := ErrorFromStatusCode(408, "slow", "openrouter", "", nil)
	if _, ok := err.(*RequestTimeoutError); !ok {
		t.Fatalf("expected RequestTimeoutError, got %T", err)
	}
	if !IsRetryable(err) {
		t.Error("timeouts should be retryable")
	}
}

func TestRateLimitErrorCarriesRetryAfter(t *testing.T) {
	after := 2.5
	err := ErrorFromStatusCode(429, "slow down", "openrouter", "rate_limited", &after)

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T", err)
	}
	if rl.RetryAfter == nil || *rl.RetryAfter != 2.5 {
		t.Errorf("expected RetryAfter=2.5, got %v", rl.RetryAfter)
	}
	if rl.ErrorCode != "rate_limited" {
		t.Errorf("expected error code rate_limited, got %q", rl.ErrorCode)
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{ClientError: ClientError{Message: "network error", Cause: cause}}

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if err.Error() != "network error: connection refused" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestIsRetryableNonProviderErrors(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if IsRetryable(&ConfigurationError{}) {
		t.Error("configuration errors should not be retryable")
	}
	if IsRetryable(&AbortError{}) {
		t.Error("aborts should not be retryable")
	}
	if IsRetryable(&MalformedPayloadError{}) {
		t.Error("malformed payloads should not be retryable")
	}
	if !IsRetryable(&TransportError{}) {
		t.Error("transport errors should be retryable")
	}
}
