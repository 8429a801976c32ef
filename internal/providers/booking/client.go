// Package booking is the HTTP client of the salon's scheduling backend.
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/retry"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultPageSize = 50

	maxResponseBytes = 4 << 20
)

var ErrURLNotAllowed = errors.New("url not allowed by booking client")

type Config struct {
	BaseURL         string
	APIKey          string
	EstablishmentID string
	Timeout         time.Duration
	// Retry applies to read operations only. Nil uses retry defaults.
	Retry *retry.Config
}

type Client struct {
	http            *http.Client
	baseURL         string
	apiKey          string
	establishmentID string
	retrier         *retry.Retrier
	// writes are not idempotent and run once
	writer *retry.Retrier
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("booking base url is not set")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid booking base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http:            &http.Client{Timeout: timeout},
		baseURL:         base,
		apiKey:          cfg.APIKey,
		establishmentID: cfg.EstablishmentID,
		retrier:         retry.NewRetrier(cfg.Retry),
		writer:          retry.NewRetrier(retry.NoRetryConfig()),
	}, nil
}

// resolveURL joins relative paths onto the base url. Absolute urls must live under the base url.
func (c *Client) resolveURL(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		if path != c.baseURL && !strings.HasPrefix(path, c.baseURL+"/") && !strings.HasPrefix(path, c.baseURL+"?") {
			return "", fmt.Errorf("%w: %s", ErrURLNotAllowed, path)
		}
		return path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path, nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.retrier.Do(ctx, func() error {
		body, err := c.do(ctx, op, http.MethodGet, path, query, nil)
		if err != nil {
			if !retryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		out = body
		return nil
	})
	return out, err
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.writer.Do(ctx, func() error {
		body, err := c.do(ctx, op, http.MethodPost, path, nil, payload)
		out = body
		return err
	})
	return out, err
}

// retryable accepts transport failures and 5xx responses.
func retryable(err error) bool {
	if errors.Is(err, ErrURLNotAllowed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var be *Error
	if !errors.As(err, &be) || be.Kind != core.KindBackendError {
		return false
	}
	return be.Status >= 500 || (be.Status == 0 && be.Err != nil)
}

// do performs one request and returns the JSON body. Non-2xx statuses, bodies that are not JSON
// and bodies carrying a non-empty "error" field are returned as *Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	logger := log.FromCtx(ctx)

	target, err := c.resolveURL(path)
	if err != nil {
		return nil, backendError(op, 0, err.Error(), err)
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, backendError(op, 0, "create request", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("estabelecimentoId", c.establishmentID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", core.SvimUserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("op", op).Msg("booking request failed")
		return nil, backendError(op, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, backendError(op, resp.StatusCode, "read body", err)
	}

	logger.Debug().
		Str("op", op).
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("booking request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backendError(op, resp.StatusCode, errorMessage(data, resp.Status), nil)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		logger.Error().Str("op", op).Msg("invalid json from booking backend")
		return nil, invalidResponse(op, fmt.Errorf("body is not json"))
	}
	if core.IsErrorPayload(string(trimmed)) {
		return nil, backendError(op, resp.StatusCode, errorMessage(trimmed, "error"), nil)
	}
	return json.RawMessage(trimmed), nil
}

// errorMessage extracts a readable message from an error body, falling back to fallback.
func errorMessage(body []byte, fallback string) string {
	var probe struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		text := strings.TrimSpace(string(body))
		if text == "" || len(text) > 200 {
			return fallback
		}
		return text
	}
	switch e := probe.Error.(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]any:
		if m, ok := e["message"].(string); ok && m != "" {
			return m
		}
	}
	if probe.Message != "" {
		return probe.Message
	}
	return fallback
}
