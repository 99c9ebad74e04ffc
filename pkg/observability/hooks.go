package observability

import (
	"context"
	"log/slog"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed steps at warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			logger.DebugContext(ctx, "Command interpreted",
				"session_id", e.SessionID,
				"text", e.Command.NormalizedText,
				"intents", len(e.Command.Intents),
				"wake", e.WakeDetected,
				"macros", e.MacroExpansions,
			)
		},
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "Step started", "execution_id", e.ExecutionID, "step", e.Index, "intent", e.Intent.Kind())
		},
		OnStepFinish: func(ctx context.Context, e *domain.StepEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "Step failed", "execution_id", e.ExecutionID, "step", e.Index, "intent", e.Intent.Kind(), "error", e.Err)
				return
			}
			logger.DebugContext(ctx, "Step finished", "execution_id", e.ExecutionID, "step", e.Index, "intent", e.Intent.Kind(), "duration", e.Duration)
		},
		OnGesture: func(ctx context.Context, e *domain.GestureEvent) {
			logger.DebugContext(ctx, "Gesture recognized", "gesture", e.Kind)
		},
		OnDisplayChange: func(ctx context.Context, e *domain.DisplayEvent) {
			logger.DebugContext(ctx, "Display changed", "from", e.From, "to", e.To)
		},
	}
}

// Combine returns hooks that call each of hs in order.
func Combine(hs ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hs {
		out.OnCommand = chain(out.OnCommand, h.OnCommand)
		out.OnStepStart = chain(out.OnStepStart, h.OnStepStart)
		out.OnStepFinish = chain(out.OnStepFinish, h.OnStepFinish)
		out.OnGesture = chain(out.OnGesture, h.OnGesture)
		out.OnDisplayChange = chain(out.OnDisplayChange, h.OnDisplayChange)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
