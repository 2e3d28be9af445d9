package services_test

import (
	"context"
	"testing"

	"cubby/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithComponent(ctx, "organize")
	ctx = services.WithTrigger(ctx, "watch")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if component, ok := services.ComponentFromContext(ctx); !ok || component != "organize" {
		t.Fatalf("unexpected component: %v %v", component, ok)
	}
	if trigger, ok := services.TriggerFromContext(ctx); !ok || trigger != "watch" {
		t.Fatalf("unexpected trigger: %v %v", trigger, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestComponentBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithComponent(ctx, "")
	if _, ok := services.ComponentFromContext(ctx); ok {
		t.Fatal("expected no component value")
	}
}
