package log

import (
	"context"

	"github.com/rs/zerolog"
)

// GooseLogger routes goose output through the context logger. Fatalf logs at error level:
// a failed migration is returned to the caller, never exited on.
type GooseLogger struct {
	zl zerolog.Logger
}

func NewGooseLoggerFromCtx(ctx context.Context) *GooseLogger {
	return &GooseLogger{zl: FromCtx(ctx).With().Str("component", "migrations").Logger()}
}

func (g *GooseLogger) Fatalf(format string, v ...any) {
	g.zl.Error().Msgf(format, v...)
}

func (g *GooseLogger) Printf(format string, v ...any) {
	g.zl.Debug().Msgf(format, v...)
}
