// Package events publishes structured audit events for subscription lifecycle
// changes. The sink is a logging collaborator: delivery is best-effort and
// never affects the outcome of the operation that emitted the event.
package events

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	SubscriptionCreated     = "subscription.created"
	SubscriptionDeactivated = "subscription.deactivated"
	SubscriptionPlanChanged = "subscription.plan_changed"
)

// Emitter delivers audit events to the configured sink.
type Emitter interface {
	Emit(ctx context.Context, event string, fields map[string]any)
}

type zapEmitter struct {
	log *zap.Logger
}

// NewZapEmitter returns an Emitter that writes events to the structured log.
func NewZapEmitter(log *zap.Logger) Emitter {
	return &zapEmitter{log: log.Named("audit")}
}

func (e *zapEmitter) Emit(ctx context.Context, event string, fields map[string]any) {
	_ = ctx

	zapFields := make([]zap.Field, 0, len(fields)+1)
	zapFields = append(zapFields, zap.String("event", event))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	e.log.Info("audit event", zapFields...)
}

var Module = fx.Module("events",
	fx.Provide(NewZapEmitter),
)
