// Package logger wraps a process-wide zerolog logger. Entries carry the
// trace and span ids of the active OpenTelemetry span when there is one.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is usable before Init; it then writes JSON to stderr.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Options configures Init.
type Options struct {
	Service string
	Level   string
	Pretty  bool   // console output for development
	File    string // rotated JSON file, empty disables it
}

// Init installs the global logger. It returns a closer for the log file.
func Init(opts Options) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var console io.Writer = os.Stdout
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, rotated)
		closer = rotated
	}

	Logger = zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger()
	log.Logger = Logger
	return closer
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithContext returns the global logger annotated with the trace of ctx.
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Logger
	if ctx != nil {
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			l = l.With().
				Str("trace_id", sc.TraceID().String()).
				Str("span_id", sc.SpanID().String()).
				Logger()
		}
	}
	return &l
}

func Debug(ctx context.Context) *zerolog.Event { return WithContext(ctx).Debug() }
func Info(ctx context.Context) *zerolog.Event  { return WithContext(ctx).Info() }
func Warn(ctx context.Context) *zerolog.Event  { return WithContext(ctx).Warn() }
func Error(ctx context.Context) *zerolog.Event { return WithContext(ctx).Error() }
func Fatal(ctx context.Context) *zerolog.Event { return WithContext(ctx).Fatal() }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
