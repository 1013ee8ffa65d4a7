package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type runIDKey struct{}

// NewRunID returns an identifier for one agent run.
func NewRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

func WithRunID(ctx context.Context, runID string) context.Context {
	if ctx == nil || runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(runIDKey{}).(string); ok {
		return v
	}
	return ""
}

// StartRun makes sure ctx carries a run ID and a logger tagged with it. An
// existing run keeps its ID and logger.
func StartRun(ctx context.Context, fallback *slog.Logger) (context.Context, *slog.Logger, string) {
	runID := RunIDFromContext(ctx)
	if runID == "" {
		runID = NewRunID()
		ctx = WithRunID(ctx, runID)
	} else if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return ctx, logger, runID
	}
	if fallback == nil {
		fallback = slog.Default()
	}
	logger := fallback.With("run_id", runID)
	return WithLogger(ctx, logger), logger, runID
}
