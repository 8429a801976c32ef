// Package qdrant implements core.VectorBackend on the Qdrant REST API.
package qdrant

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
)

const defaultTimeout = 10 * time.Second

// payload fields and their index schema
var fieldSchemas = map[string]string{
	core.PayloadUserID:    "keyword",
	core.PayloadSessionID: "keyword",
	core.PayloadCreatedAt: "datetime",
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

type Backend struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	collection string
}

var _ core.VectorBackend = (*Backend)(nil)

func New(cfg Config) (*Backend, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("qdrant url is not set")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is not set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Backend{
		client:     &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
	}, nil
}

// StatusError is a non-2xx Qdrant response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("qdrant: status %d: %s", e.Status, e.Message)
}

func (e *StatusError) ErrorKind() core.ErrorKind {
	return core.KindBackendError
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Status any             `json:"status"`
}

func (b *Backend) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(b.collection) + suffix
}

func (b *Backend) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("api-key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Message: statusMessage(data)}
	}
	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func statusMessage(data []byte) string {
	var env struct {
		Status struct {
			Error string `json:"error"`
		} `json:"status"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Status.Error != "" {
		return env.Status.Error
	}
	return strings.TrimSpace(string(data))
}

func (b *Backend) CollectionExists(ctx context.Context) (bool, error) {
	err := b.doRequest(ctx, http.MethodGet, b.collectionPath(""), nil, nil)
	if err == nil {
		return true, nil
	}
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (b *Backend) CreateCollection(ctx context.Context, vectorSize int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	return b.doRequest(ctx, http.MethodPut, b.collectionPath(""), body, nil)
}

func (b *Backend) CreatePayloadIndex(ctx context.Context, field string) error {
	schema, ok := fieldSchemas[field]
	if !ok {
		schema = "keyword"
	}
	body := map[string]any{
		"field_name":   field,
		"field_schema": schema,
	}
	err := b.doRequest(ctx, http.MethodPut, b.collectionPath("/index?wait=true"), body, nil)
	var se *StatusError
	if errors.As(err, &se) && strings.Contains(strings.ToLower(se.Message), "already exists") {
		return fmt.Errorf("%w: %s", core.ErrIndexExists, field)
	}
	return err
}

type apiPoint struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Score   float32        `json:"score,omitempty"`
}

func (p apiPoint) toCore() core.Point {
	return core.Point{
		ID:      pointID(p.ID),
		Vector:  p.Vector,
		Payload: p.Payload,
		Score:   p.Score,
	}
}

// pointID renders uuid and integer ids alike.
func pointID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func apiFilter(f core.Filter) map[string]any {
	if len(f.Must) == 0 {
		return nil
	}
	must := make([]map[string]any, 0, len(f.Must))
	for _, m := range f.Must {
		must = append(must, map[string]any{
			"key":   m.Key,
			"match": map[string]any{"value": m.Value},
		})
	}
	return map[string]any{"must": must}
}

func (b *Backend) Scroll(ctx context.Context, filter core.Filter, limit int) ([]core.Point, error) {
	body := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if f := apiFilter(filter); f != nil {
		body["filter"] = f
	}

	var result struct {
		Points []apiPoint `json:"points"`
	}
	if err := b.doRequest(ctx, http.MethodPost, b.collectionPath("/points/scroll"), body, &result); err != nil {
		return nil, err
	}

	out := make([]core.Point, 0, len(result.Points))
	for _, p := range result.Points {
		out = append(out, p.toCore())
	}
	return out, nil
}

func (b *Backend) Search(ctx context.Context, vector []float32, filter core.Filter, limit int) ([]core.Point, error) {
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := apiFilter(filter); f != nil {
		body["filter"] = f
	}

	var result []apiPoint
	if err := b.doRequest(ctx, http.MethodPost, b.collectionPath("/points/search"), body, &result); err != nil {
		return nil, err
	}

	out := make([]core.Point, 0, len(result))
	for _, p := range result {
		out = append(out, p.toCore())
	}
	return out, nil
}

func (b *Backend) Upsert(ctx context.Context, points []core.Point) error {
	if len(points) == 0 {
		return nil
	}
	apiPoints := make([]apiPoint, 0, len(points))
	for _, p := range points {
		apiPoints = append(apiPoints, apiPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}
	return b.doRequest(ctx, http.MethodPut, b.collectionPath("/points?wait=true"), map[string]any{"points": apiPoints}, nil)
}
