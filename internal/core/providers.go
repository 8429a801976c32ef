package core

import (
	"context"
	"errors"
)

// ErrRateLimited is returned by providers when the upstream model rejects a request with HTTP 429.
var ErrRateLimited = errors.New("model provider rate limited")

type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
}

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
