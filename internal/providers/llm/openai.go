package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/retry"
	"github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	// Dimensions requests shortened embeddings from models that support it. Zero keeps the model default.
	Dimensions int
	Timeout    time.Duration
	Retry      *retry.Config
}

// OpenAI serves chat completions and embeddings through one go-openai client.
type OpenAI struct {
	client         *openai.Client
	model          string
	embeddingModel string
	dimensions     int
	retrier        *retry.Retrier
}

var (
	_ core.AIProvider = (*OpenAI)(nil)
	_ core.Embedder   = (*OpenAI)(nil)
)

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAI{
		client:         openai.NewClientWithConfig(config),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
		retrier:        retry.NewRetrier(cfg.Retry),
	}
}

func (o *OpenAI) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(history),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return core.Message{}, classify("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, fmt.Errorf("chat completion: empty choices")
	}

	log.FromCtx(ctx).Debug().
		Str("model", o.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("chat completion")

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// Embed returns one vector per text in input order. Transient failures are retried.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(o.embeddingModel),
		Dimensions: o.dimensions,
	}

	var resp openai.EmbeddingResponse
	err := o.retrier.Do(ctx, func() error {
		var err error
		resp, err = o.client.CreateEmbeddings(ctx, req)
		if err != nil {
			if status := statusCode(err); status >= 400 && status < 500 {
				return retry.Permanent(classify("embeddings", err))
			}
			return classify("embeddings", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}
	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// classify maps HTTP 429 to core.ErrRateLimited and wraps everything else.
func classify(op string, err error) error {
	if statusCode(err) == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %w", op, core.ErrRateLimited, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toOpenAIMessages(history []core.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msg := openai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []core.Tool) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) core.Message {
	msg := core.Message{
		Role:    m.Role,
		Content: m.Content,
	}
	if msg.Role == "" {
		msg.Role = core.RoleAssistant
	}
	for _, tc := range m.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: core.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}
