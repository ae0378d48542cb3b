package llmclient

import (
	"context"
	"fmt"
	"sync"
)

// Backend is the contract every provider adapter must satisfy: one blocking
// completion call. Streaming, batching, and speculative calls are out of
// scope for the agent loop.
type Backend interface {
	// Name returns the provider identifier (e.g. "openrouter", "openai").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client routes requests to registered Backend adapters by provider name and
// applies the retry policy around every call.
type Client struct {
	backends       map[string]Backend
	defaultBackend string
	policy         RetryPolicy
	mu             sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBackend registers a backend adapter.
func WithBackend(b Backend) ClientOption {
	return func(c *Client) {
		c.backends[b.Name()] = b
	}
}

// WithDefaultBackend sets the backend used when a request names no provider.
func WithDefaultBackend(name string) ClientOption {
	return func(c *Client) {
		c.defaultBackend = name
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = policy
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		backends: make(map[string]Backend),
		policy:   DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// If no default and exactly one backend, use it.
	if c.defaultBackend == "" && len(c.backends) == 1 {
		for name := range c.backends {
			c.defaultBackend = name
		}
	}
	return c
}

// RegisterBackend adds a backend adapter after construction.
func (c *Client) RegisterBackend(b Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends[b.Name()] = b
	if c.defaultBackend == "" {
		c.defaultBackend = b.Name()
	}
}

func (c *Client) resolve(req Request) (Backend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name := req.Provider
	if name == "" {
		name = c.defaultBackend
	}
	if name == "" {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: "no provider specified and no default backend configured",
		}}
	}
	b, ok := c.backends[name]
	if !ok {
		return nil, &ConfigurationError{ClientError: ClientError{
			Message: fmt.Sprintf("backend %q is not registered", name),
		}}
	}
	return b, nil
}

// Complete resolves the backend for the request and calls it under the retry
// policy. Non-retryable errors and exhausted retries surface to the caller.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	b, err := c.resolve(req)
	if err != nil {
		return nil, err
	}
	if req.Provider == "" {
		req.Provider = b.Name()
	}

	c.mu.RLock()
	policy := c.policy
	c.mu.RUnlock()

	return Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
		return b.Complete(ctx, req)
	})
}
