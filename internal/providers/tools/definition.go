package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
)

type Handler func(context.Context, json.RawMessage) (string, error)

type Definition struct {
	Description string
	Schema      string
	Handler     Handler
}

// Func adapts a Definition to core.Invokable. Handler errors are returned to the model
// as structured error payloads, never as Go errors.
type Func struct {
	tool    core.Tool
	handler Handler
}

var _ core.Invokable = (*Func)(nil)

func NewFunc(name string, def Definition) *Func {
	return &Func{
		tool:    core.NewFunctionTool(name, def.Description, def.Schema),
		handler: def.Handler,
	}
}

func (f *Func) Definition() core.Tool {
	return f.tool
}

func (f *Func) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	out, err := f.handler(ctx, args)
	if err != nil {
		te := core.ToolErrorFrom(err)
		if te.Tool == "" {
			te.Tool = f.tool.Function.Name
		}
		log.FromCtx(ctx).Warn().Err(err).Str("tool", f.tool.Function.Name).Str("kind", string(te.Kind)).Msg("tool call rejected")
		return te.JSON(), nil
	}
	return out, nil
}

// Invokables turns a definition set into tools ordered by name.
func Invokables(defs map[string]Definition) []core.Invokable {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]core.Invokable, 0, len(names))
	for _, name := range names {
		out = append(out, NewFunc(name, defs[name]))
	}
	return out
}
