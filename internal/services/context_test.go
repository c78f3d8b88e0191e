package services_test

import (
	"context"
	"testing"

	"autosplit/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithInput(ctx, "/music/disc.nrg")
	ctx = services.WithStrategy(ctx, "direct")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if input, ok := services.InputFromContext(ctx); !ok || input != "/music/disc.nrg" {
		t.Fatalf("unexpected input: %v %v", input, ok)
	}
	if strategy, ok := services.StrategyFromContext(ctx); !ok || strategy != "direct" {
		t.Fatalf("unexpected strategy: %v %v", strategy, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStrategy(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StrategyFromContext(ctx); ok {
		t.Fatal("expected no strategy value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
