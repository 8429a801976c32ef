package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
)

// Options controls the process logger.
type Options struct {
	Debug bool
	// JSON switches from the console writer to structured output.
	JSON bool
	// Out defaults to stderr: stdout is reserved for command results.
	Out io.Writer
}

func NewContextWithLogger(ctx context.Context, opts Options) (context.Context, func()) {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return ""
	}

	if opts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	// Use a diode (ring buffer) for non-blocking logging
	wr := diode.NewWriter(out, 1000, 5*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "Logger Dropped %d messages\n", missed)
	})

	var sink io.Writer = wr
	if !opts.JSON {
		sink = zerolog.ConsoleWriter{
			Out:        wr,
			TimeFormat: time.DateTime,
			PartsOrder: []string{
				zerolog.LevelFieldName,
				zerolog.TimestampFieldName,
				zerolog.MessageFieldName,
			},
		}
	}

	logger := zerolog.New(sink).
		With().
		Timestamp().
		Logger()

	log.Logger = logger

	return log.With().Logger().WithContext(ctx), func() {
		wr.Close()
	}
}

func FromCtx(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

// Component returns a child context whose logger is tagged with the component name.
func Component(ctx context.Context, name string) context.Context {
	logger := FromCtx(ctx).With().Str("component", name).Logger()
	return logger.WithContext(ctx)
}
