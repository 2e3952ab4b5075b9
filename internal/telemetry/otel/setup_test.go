package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "test-service", false, nil)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil {
			t.Error("TracerProvider should not be nil")
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op for empty endpoint, got error: %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	testCases := []struct {
		name     string
		endpoint string
	}{
		{"invalid characters", "://invalid"},
		{"malformed URL", "http://[invalid"},
		{"missing host", "http://"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewProviders(context.Background(), tc.endpoint, "test-service", false, nil); err == nil {
				t.Errorf("NewProviders(%q) should fail", tc.endpoint)
			}
		})
	}
}

func TestNewProviders_LazyDial(t *testing.T) {
	// The gRPC exporter connects lazily, so an unreachable collector is not a startup error.
	ctx := context.Background()
	providers, err := NewProviders(ctx, "http://127.0.0.1:1", "test-service", false, nil)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if providers.TracerProvider == nil {
		t.Fatal("TracerProvider should not be nil")
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_ = providers.Shutdown(cctx)
}

func TestDialTarget(t *testing.T) {
	testCases := []struct {
		endpoint     string
		override     bool
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"http://collector:4317", false, "collector:4317", true},
		{"https://collector:4317", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
		{"https://collector:4317/v1/traces", false, "collector:4317", false},
	}
	for _, tc := range testCases {
		target, insecure, err := dialTarget(tc.endpoint, tc.override)
		if err != nil {
			t.Fatalf("dialTarget(%q): %v", tc.endpoint, err)
		}
		if target != tc.wantTarget || insecure != tc.wantInsecure {
			t.Errorf("dialTarget(%q, %v) = %q, %v; want %q, %v",
				tc.endpoint, tc.override, target, insecure, tc.wantTarget, tc.wantInsecure)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	orig := otel.GetTracerProvider()
	defer otel.SetTracerProvider(orig)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	(&Providers{TracerProvider: tp}).SetGlobal()

	if otel.GetTracerProvider() != tp {
		t.Error("global TracerProvider was not set")
	}
	if len(otel.GetTextMapPropagator().Fields()) == 0 {
		t.Error("propagator should carry trace context fields")
	}
}

func TestSetGlobal_NilProvider(t *testing.T) {
	orig := otel.GetTracerProvider()
	defer otel.SetTracerProvider(orig)

	(&Providers{}).SetGlobal()
	if otel.GetTracerProvider() != orig {
		t.Error("nil TracerProvider should leave the global unchanged")
	}
}
