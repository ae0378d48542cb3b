package agentloop

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts tokens with the cl100k_base encoding. When the encoding
// cannot be loaded (offline, missing cache) it falls back to a bytes/4
// estimate, which is close enough for windowing decisions.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter returns a counter backed by cl100k_base when available.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// Count returns the token count for text.
func (c *TokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c == nil || c.enc == nil {
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
