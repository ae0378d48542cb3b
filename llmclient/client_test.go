package llmclient

import (
	"context"
	"testing"
)

// mockBackend is a scriptable Backend for testing routing and retries.
type mockBackend struct {
	name      string
	responses []*Response
	errs      []error
	calls     int
	lastReq   Request
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	idx := m.calls
	m.calls++
	m.lastReq = req
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return &Response{Content: "default", Provider: m.name}, nil
}

func TestClientRoutesToNamedBackend(t *testing.T) {
	a := &mockBackend{name: "alpha", responses: []*Response{{Content: "from alpha"}}}
	b := &mockBackend{name: "beta", responses: []*Response{{Content: "from beta"}}}
	client := NewClient(WithBackend(a), WithBackend(b), WithDefaultBackend("alpha"))

	resp, err := client.Complete(context.Background(), Request{Provider: "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "from beta" {
		t.Errorf("expected beta response, got %q", resp.Content)
	}
	if a.calls != 0 || b.calls != 1 {
		t.Errorf("expected only beta to be called, got alpha=%d beta=%d", a.calls, b.calls)
	}
}

func TestClientDefaultBackend(t *testing.T) {
	a := &mockBackend{name: "alpha", responses: []*Response{{Content: "hi"}}}
	client := NewClient(WithBackend(a))

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hi" {
		t.Errorf("unexpected response: %q", resp.Content)
	}
	// The provider field is filled in for the backend.
	if a.lastReq.Provider != "alpha" {
		t.Errorf("expected provider alpha on the request, got %q", a.lastReq.Provider)
	}
}

func TestClientUnknownBackend(t *testing.T) {
	client := NewClient(WithBackend(&mockBackend{name: "alpha"}))

	_, err := client.Complete(context.Background(), Request{Provider: "missing"})
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestClientNoBackends(t *testing.T) {
	client := NewClient()

	_, err := client.Complete(context.Background(), Request{})
	if _, ok := err.(*ConfigurationError); !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
}

func TestClientRetriesRetryableErrors(t *testing.T) {
	b := &mockBackend{
		name: "alpha",
		errs: []error{
			&ServerError{ProviderError: ProviderError{ClientError: ClientError{Message: "boom"}, Retryable: true}},
			nil,
		},
		responses: []*Response{nil, {Content: "recovered"}},
	}
	client := NewClient(WithBackend(b), WithRetryPolicy(fastPolicy(2)))

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("unexpected response: %q", resp.Content)
	}
	if b.calls != 2 {
		t.Errorf("expected 2 calls, got %d", b.calls)
	}
}

func TestClientRegisterBackendAfterConstruction(t *testing.T) {
	client := NewClient()
	client.RegisterBackend(&mockBackend{name: "late", responses: []*Response{{Content: "late hi"}}})

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "late hi" {
		t.Errorf("unexpected response: %q", resp.Content)
	}
}
