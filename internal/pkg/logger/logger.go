// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide root logger. Services may replace it via Init.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the root logger for a named service. Level parsing is
// lenient: an unknown level falls back to info.
func Init(serviceName, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx returns a logger bound to the trace context. When the context carries a
// recording span, trace_id and span_id are attached so log lines can be joined
// with traces in Jaeger.
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", span.SpanContext().TraceID().String()).
		Str("span_id", span.SpanContext().SpanID().String()).
		Logger()
	return &l
}
