package telemetry

import (
	"context"
	"testing"
)

func TestSetup_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() returned nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetup_WithEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := Setup(ctx, "http://127.0.0.1:4318")
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer shutdown(ctx)

	if Tracer("test") == nil {
		t.Error("Tracer() returned nil")
	}
}
