package services

import "context"

type contextKey int

const (
	runIDKey contextKey = iota
	inputKey
	strategyKey
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithRunID tags ctx with the batch run identifier. Empty ids are ignored.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, runIDKey) }

// WithInput tags ctx with the input path being processed.
func WithInput(ctx context.Context, path string) context.Context {
	return withString(ctx, inputKey, path)
}

func InputFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, inputKey) }

// WithStrategy tags ctx with the extraction strategy currently running.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return withString(ctx, strategyKey, strategy)
}

func StrategyFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, strategyKey) }
