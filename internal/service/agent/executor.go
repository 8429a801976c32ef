package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/pkg/log"
	"github.com/sandevgo/svim/pkg/tokens"
)

const (
	DefaultMaxSteps = 8
	// tool results are cut to this many tokens, keeping the head and the tail
	maxToolResultTokens  = 2000
	toolResultHeadTokens = 500
)

// Executor drives the model/tool cycle until the model answers without tool calls.
type Executor struct {
	ai       core.AIProvider
	maxSteps int
}

func NewExecutor(ai core.AIProvider, maxSteps int) *Executor {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Executor{
		ai:       ai,
		maxSteps: maxSteps,
	}
}

// Run returns messages followed by every model response and tool result of the cycle.
// After maxSteps rounds of tool calls the model is asked once more without tools.
func (e *Executor) Run(ctx context.Context, messages []core.Message, tools []core.Invokable) ([]core.Message, error) {
	logger := log.FromCtx(ctx)

	registry := make(map[string]core.Invokable, len(tools))
	defs := make([]core.Tool, 0, len(tools))
	for _, t := range tools {
		def := t.Definition()
		registry[def.Function.Name] = t
		defs = append(defs, def)
	}

	transcript := append([]core.Message(nil), messages...)
	for step := 0; ; step++ {
		offer := defs
		if step >= e.maxSteps {
			logger.Warn().Int("steps", step).Msg("tool step limit reached, requesting final answer")
			offer = nil
		}

		resp, err := e.ai.Chat(ctx, transcript, offer)
		if err != nil {
			return transcript, fmt.Errorf("ai chat error: %w", err)
		}
		if resp.Role == "" {
			resp.Role = core.RoleAssistant
		}
		transcript = append(transcript, resp)

		if len(resp.ToolCalls) == 0 || offer == nil {
			return transcript, nil
		}
		transcript = append(transcript, e.Execute(ctx, resp.ToolCalls, registry)...)
	}
}

// Execute runs the calls of one model response concurrently and returns results in call order.
func (e *Executor) Execute(ctx context.Context, toolCalls []core.ToolCall, registry map[string]core.Invokable) []core.Message {
	results := make([]core.Message, len(toolCalls))

	var wg sync.WaitGroup
	for i, tc := range toolCalls {
		wg.Add(1)
		go func(i int, tc core.ToolCall) {
			defer wg.Done()
			results[i] = core.Message{
				Role:       core.RoleTool,
				Content:    truncate(e.call(ctx, tc, registry)),
				ToolCallID: tc.ID,
			}
		}(i, tc)
	}
	wg.Wait()

	return results
}

func (e *Executor) call(ctx context.Context, tc core.ToolCall, registry map[string]core.Invokable) string {
	logger := log.FromCtx(ctx)
	logger.Info().Str("tool", tc.Function.Name).Msg("executing tool")

	tool, ok := registry[tc.Function.Name]
	if !ok {
		return (&core.ToolError{Kind: core.KindUnknownTool, Tool: tc.Function.Name, Message: "ferramenta desconhecida"}).JSON()
	}

	res, err := tool.Invoke(ctx, json.RawMessage(tc.Function.Arguments))
	if err != nil {
		logger.Error().Err(err).Str("tool", tc.Function.Name).Msg("tool failed")
		te := core.ToolErrorFrom(err)
		te.Tool = tc.Function.Name
		return te.JSON()
	}
	return res
}

func truncate(input string) string {
	head, tail, dropped := tokens.Trim(input, maxToolResultTokens, toolResultHeadTokens)
	if dropped == 0 {
		return input
	}
	return fmt.Sprintf("%s\n\n... [TRUNCATED %d tokens] ...\n\n%s", head, dropped, tail)
}
