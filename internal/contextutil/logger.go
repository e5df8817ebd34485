package contextutil

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// LoggerFromContext returns the request-scoped logger carried by ctx, falling
// back to slog.Default when none was attached. Handlers, the ingestion
// pipeline and the analysis engine all log through this so request attributes
// follow the work.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if v := ctx.Value(loggerKey); v != nil {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// LoggerKey returns the context key loggers are stored under, so middleware
// can attach a logger that LoggerFromContext will find.
func LoggerKey() contextKey {
	return loggerKey
}
