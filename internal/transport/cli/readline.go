package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/service/agent"
	"github.com/sandevgo/svim/pkg/log"
)

// historyLimit bounds the in-process exchange forwarded with every turn.
const historyLimit = 20

type Runner interface {
	Run(ctx context.Context, turn agent.Turn) (agent.Result, error)
}

// ReadLine is an interactive chat with the assistant, one session per process.
type ReadLine struct {
	runner    Runner
	clientID  string
	sessionID string
	history   []core.Message
	rl        *readline.Instance
	out       io.Writer
}

func NewReadLine(runner Runner, runtimePath, clientID string) (*ReadLine, error) {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		runner:    runner,
		clientID:  clientID,
		sessionID: uuid.NewString(),
		rl:        rl,
		out:       rl.Stdout(),
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("session", r.sessionID).Msg("chat started. Type 'exit' to quit.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}

		r.handle(ctx, line)
	}
}

// handle runs one turn and prints the reply.
func (r *ReadLine) handle(ctx context.Context, line string) {
	result, err := r.runner.Run(ctx, agent.Turn{
		Message:   line,
		ClientID:  r.clientID,
		SessionID: r.sessionID,
		History:   r.history,
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("agent run failed")
		fmt.Fprintln(r.out, ErrorStyle.Render("Erro: "+err.Error()))
		return
	}

	if log.FromCtx(ctx).Debug().Enabled() {
		for _, m := range result.Messages {
			if m.Type == core.RoleTool {
				fmt.Fprintln(r.out, DescStyle.Render("[tool] "+m.Content))
			}
		}
	}
	fmt.Fprintf(r.out, "%s %s\n", ReplyStyle.Render("Maria:"), result.Reply)

	if result.RateLimited {
		return
	}
	r.history = append(r.history,
		core.Message{Role: core.RoleUser, Content: line},
		core.Message{Role: core.RoleAssistant, Content: result.Reply},
	)
	if len(r.history) > historyLimit {
		r.history = r.history[len(r.history)-historyLimit:]
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
