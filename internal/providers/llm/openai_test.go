package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/svim/internal/config"
	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewOpenAI(OpenAIConfig{
		APIKey:         "test",
		BaseURL:        srv.URL + "/v1",
		Model:          "gpt-test",
		EmbeddingModel: "text-embedding-3-small",
		Retry: &retry.Config{
			MaxRetries:    2,
			BackoffFactor: 1,
			InitialDelay:  time.Millisecond,
			MaxDelay:      time.Millisecond,
		},
	})
}

func TestOpenAI_ChatMapsToolCalls(t *testing.T) {
	requests := make(chan map[string]any, 1)
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests <- body

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id":"c1","object":"chat.completion","model":"gpt-test",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant","content":"",
				"tool_calls":[{"id":"call_1","type":"function","function":{"name":"listar_servicos","arguments":"{\"nome\":\"corte\"}"}}]
			}}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}
		}`)
	})

	history := []core.Message{
		{Role: core.RoleSystem, Content: "Você é a assistente do salão."},
		{Role: core.RoleUser, Content: "quero cortar o cabelo"},
	}
	tools := []core.Tool{core.NewFunctionTool("listar_servicos", "Lista serviços", `{"type":"object"}`)}

	msg, err := o.Chat(context.Background(), history, tools)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "listar_servicos", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"nome":"corte"}`, msg.ToolCalls[0].Function.Arguments)

	body := <-requests
	assert.Equal(t, "gpt-test", body["model"])
	assert.Len(t, body["messages"], 2)
	assert.Len(t, body["tools"], 1)
}

func TestOpenAI_ChatRateLimited(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`)
	})

	_, err := o.Chat(context.Background(), []core.Message{{Role: core.RoleUser, Content: "oi"}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRateLimited))
}

func TestOpenAI_EmbedRestoresInputOrder(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"usage":{"prompt_tokens":4,"total_tokens":4}}`)
	})

	vecs, err := o.Embed(context.Background(), []string{"user: oi", "assistant: olá"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAI_EmbedRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.5,0.5]}]}`)
	})

	vecs, err := o.Embed(context.Background(), []string{"oi"})
	require.NoError(t, err)
	assert.Len(t, vecs, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOpenAI_EmbedClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad input","type":"invalid_request_error"}}`)
	})

	_, err := o.Embed(context.Background(), []string{"oi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAI_EmbedEmpty(t *testing.T) {
	o := NewOpenAI(OpenAIConfig{APIKey: "x"})
	vecs, err := o.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestNewEmbedderFallsBackToHashing(t *testing.T) {
	emb, dims := NewEmbedder(context.Background(), config.EmbedderOpenAI, nil, 1536)
	assert.Equal(t, 256, dims)

	vecs, err := emb.Embed(context.Background(), []string{"corte"})
	require.NoError(t, err)
	assert.Len(t, vecs[0], dims)
}

func TestNewEmbedderSelection(t *testing.T) {
	var calls atomic.Int32
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	emb, dims := NewEmbedder(context.Background(), config.EmbedderHashing, provider, 1536)
	assert.Equal(t, 256, dims)
	vecs, err := emb.Embed(context.Background(), []string{"corte de cabelo"})
	require.NoError(t, err)
	assert.Len(t, vecs[0], dims)
	assert.Equal(t, int32(0), calls.Load(), "hashing embedder never calls the remote api")

	emb, dims = NewEmbedder(context.Background(), config.EmbedderOpenAI, provider, 1536)
	assert.Equal(t, 1536, dims)
	assert.Same(t, provider, emb)
}
