// Package llmclient provides the LLM backend client used by the agent loop.
//
// It presents a single blocking contract — Backend.Complete — over
// OpenAI-compatible chat-completion endpoints, and layers three concerns on
// top of it:
//
//   - Wire types for the chat-completions convention the agent relies on,
//     including function-calling tool definitions and tool_calls extraction.
//   - An error taxonomy that classifies transport, provider, and payload
//     failures, with an IsRetryable predicate driving the retry policy.
//   - A Client that routes requests to registered Backend adapters by
//     provider name and wraps every call in bounded retry with exponential
//     backoff.
//
// Two adapters are provided: ChatAdapter speaks HTTP directly to an
// OpenRouter-style endpoint, and GollmAdapter wraps the gollm library for
// direct provider access (openai, anthropic).
package llmclient
