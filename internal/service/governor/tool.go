package governor

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
)

const numberPrec = 256

// Tool is an Invokable guarded by a thread ledger.
type Tool struct {
	inner    core.Invokable
	name     string
	thread   string
	governor *Governor
}

var _ core.Invokable = (*Tool)(nil)

// Result is delivered by InvokeAsync.
type Result struct {
	Output string
	Err    error
}

func (g *Governor) Wrap(thread string, inner core.Invokable) *Tool {
	return &Tool{
		inner:    inner,
		name:     inner.Definition().Function.Name,
		thread:   thread,
		governor: g,
	}
}

func (g *Governor) WrapAll(thread string, tools []core.Invokable) []core.Invokable {
	out := make([]core.Invokable, len(tools))
	for i, t := range tools {
		out[i] = g.Wrap(thread, t)
	}
	return out
}

func (t *Tool) Definition() core.Tool {
	return t.inner.Definition()
}

// Invoke returns the cached result for identical arguments, a TOOL_LIMIT payload once the
// ceiling is reached, and otherwise calls the wrapped tool. Only successful results are cached.
func (t *Tool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	logger := log.FromCtx(ctx).With().Str("tool", t.name).Str("thread", t.thread).Logger()
	key := CanonicalArgs(args)
	l := t.governor.ledger(t.thread)

	cached, hit, ok := l.admit(t.name, key, t.governor.maxCalls)
	switch {
	case hit:
		logger.Debug().Msg("tool result served from turn cache")
		return cached, nil
	case !ok:
		logger.Warn().Int("limit", t.governor.maxCalls).Msg("tool call ceiling reached")
		limit := &core.ToolError{
			Kind:    core.KindToolLimit,
			Message: "limite de chamadas desta ferramenta atingido neste turno",
			Tool:    t.name,
			Limit:   t.governor.maxCalls,
		}
		return limit.JSON(), nil
	}

	result, err := t.inner.Invoke(ctx, args)
	if err != nil {
		return "", err
	}
	if isCacheable(result) {
		l.store(t.name, key, result)
	}
	return result, nil
}

// InvokeAsync runs Invoke on its own goroutine. The channel receives exactly one Result.
func (t *Tool) InvokeAsync(ctx context.Context, args json.RawMessage) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		out, err := t.Invoke(ctx, args)
		ch <- Result{Output: out, Err: err}
	}()
	return ch
}

// CanonicalArgs renders tool arguments with sorted keys, null fields removed and numbers
// rewritten by value, so that
// semantically equal argument sets share a cache key. Unparseable input is keyed by its trimmed text.
func CanonicalArgs(args json.RawMessage) string {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "{}"
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return string(trimmed)
	}

	out, err := json.Marshal(canonical(v))
	if err != nil {
		return string(trimmed)
	}
	return string(out)
}

// canonical drops null fields and rewrites numbers by value, so 1, 1.0 and 1e0 compare equal.
func canonical(v any) any {
	switch val := v.(type) {
	case json.Number:
		return canonicalNumber(val)
	case map[string]any:
		for k, item := range val {
			if item == nil {
				delete(val, k)
				continue
			}
			val[k] = canonical(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = canonical(item)
		}
		return val
	}
	return v
}

func canonicalNumber(n json.Number) json.Number {
	f, _, err := big.ParseFloat(string(n), 10, numberPrec, big.ToNearestEven)
	if err != nil {
		return n
	}
	if i, acc := f.Int64(); acc == big.Exact {
		return json.Number(strconv.FormatInt(i, 10))
	}
	return json.Number(f.Text('g', -1))
}

// isCacheable accepts well-formed JSON objects that carry no error.
func isCacheable(result string) bool {
	s := strings.TrimSpace(result)
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return false
	}
	return !core.IsErrorPayload(s)
}
