package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/svim/internal/config"
	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/providers/rag"
	"github.com/sandevgo/svim/pkg/log"
)

// NewProvider creates the chat model client from configuration.
func NewProvider(ctx context.Context, cfg *config.OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	log.FromCtx(ctx).Info().
		Str("model", cfg.Model).
		Str("embeddings", cfg.EmbeddingModel).
		Msg("starting llm provider")

	return NewOpenAI(OpenAIConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
	}), nil
}

// NewEmbedder returns the embedder selected by name. The hashing embedder is used when asked for
// or when no remote provider exists. The second value is the vector size the store must be
// created with.
func NewEmbedder(ctx context.Context, name string, provider *OpenAI, vectorSize int) (core.Embedder, int) {
	if name != config.EmbedderHashing && provider != nil {
		return provider, vectorSize
	}
	if name != config.EmbedderHashing {
		log.FromCtx(ctx).Warn().Msg("no embedding provider configured, using local hashing embedder")
	}
	h := rag.NewHashingEmbedder(rag.DefaultHashingDim)
	return h, h.Dims()
}
