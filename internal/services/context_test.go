package services_test

import (
	"context"
	"testing"

	"subplay/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithMediaKey(ctx, "movie.mkv")
	ctx = services.WithRequestID(ctx, "req-123")

	if key, ok := services.MediaKeyFromContext(ctx); !ok || key != "movie.mkv" {
		t.Fatalf("unexpected media key: %v %v", key, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithMediaKey(ctx, "")
	ctx = services.WithRequestID(ctx, "")
	if _, ok := services.MediaKeyFromContext(ctx); ok {
		t.Fatal("expected no media key")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
}
