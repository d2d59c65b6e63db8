package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/anirbanchakraborty123/Api-based-subscription-service/internal/config"
)

// The middleware reads the otel global, so the module must force fx to
// construct the provider even though nothing else in the graph requests it.
func TestModuleRegistersGlobalTracerProvider(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(config.Config{}),
		fx.Provide(zap.NewNop),
		Module,
	)
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}()

	if _, ok := otel.GetTracerProvider().(*trace.TracerProvider); !ok {
		t.Fatalf("global tracer provider = %T, want the sdk provider", otel.GetTracerProvider())
	}
}
