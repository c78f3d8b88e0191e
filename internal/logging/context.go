package logging

import (
	"context"
	"log/slog"

	"autosplit/internal/services"
)

// Structured keys shared by every component. The logs command filters on
// the first three.
const (
	FieldComponent    = "component"
	FieldRunID        = "run_id"
	FieldInput        = "input"
	FieldStrategy     = "strategy" // sheet, direct, mount, legacy, silence
	FieldTrack        = "track"    // 1-based
	FieldEventType    = "event_type"
	FieldErrorHint    = "error_hint"
	FieldImpact       = "impact"
	FieldDecisionType = "decision_type"
)

// WithContext binds the run, input and strategy carried by ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRunID, id))
	}
	if input, ok := services.InputFromContext(ctx); ok {
		args = append(args, slog.String(FieldInput, input))
	}
	if strategy, ok := services.StrategyFromContext(ctx); ok {
		args = append(args, slog.String(FieldStrategy, strategy))
	}
	if args == nil {
		return logger
	}
	return logger.With(args...)
}
