package executor

import (
	"context"
	"fmt"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Bindings connects each intent kind to the application operation that
// performs it. A nil field falls back to Default; when both are nil the step
// fails with domain.ErrNoBinding.
type Bindings struct {
	LoadPatient       func(context.Context, domain.LoadPatient) error
	ShowSection       func(context.Context, domain.ShowSection) error
	SwitchTarget      func(context.Context, domain.SwitchTarget) error
	ActivateAssistant func(context.Context, domain.ActivateAssistant) error
	Order             func(context.Context, domain.Order) error
	ShowWorklist      func(context.Context, domain.ShowWorklist) error
	CheckIn           func(context.Context, domain.CheckIn) error
	StartCapture      func(context.Context, domain.StartCapture) error
	StopCapture       func(context.Context, domain.StopCapture) error
	GenerateNote      func(context.Context, domain.GenerateNote) error
	CreateMacro       func(context.Context, domain.CreateMacro) error
	ShowHelp          func(context.Context, domain.ShowHelp) error
	Unknown           func(context.Context, domain.Unknown) error

	// Default handles any intent whose typed binding is nil.
	Default func(context.Context, domain.Intent) error
}

func call[T domain.Intent](ctx context.Context, fn func(context.Context, T) error, fallback func(context.Context, domain.Intent) error, it T) error {
	if fn != nil {
		return fn(ctx, it)
	}
	if fallback != nil {
		return fallback(ctx, it)
	}
	return fmt.Errorf("%w: %s", domain.ErrNoBinding, it.Kind())
}

// Dispatch invokes the binding of it.
func (b Bindings) Dispatch(ctx context.Context, it domain.Intent) error {
	switch v := it.(type) {
	case domain.LoadPatient:
		return call(ctx, b.LoadPatient, b.Default, v)
	case domain.ShowSection:
		return call(ctx, b.ShowSection, b.Default, v)
	case domain.SwitchTarget:
		return call(ctx, b.SwitchTarget, b.Default, v)
	case domain.ActivateAssistant:
		return call(ctx, b.ActivateAssistant, b.Default, v)
	case domain.Order:
		return call(ctx, b.Order, b.Default, v)
	case domain.ShowWorklist:
		return call(ctx, b.ShowWorklist, b.Default, v)
	case domain.CheckIn:
		return call(ctx, b.CheckIn, b.Default, v)
	case domain.StartCapture:
		return call(ctx, b.StartCapture, b.Default, v)
	case domain.StopCapture:
		return call(ctx, b.StopCapture, b.Default, v)
	case domain.GenerateNote:
		return call(ctx, b.GenerateNote, b.Default, v)
	case domain.CreateMacro:
		return call(ctx, b.CreateMacro, b.Default, v)
	case domain.ShowHelp:
		return call(ctx, b.ShowHelp, b.Default, v)
	case domain.Unknown:
		return call(ctx, b.Unknown, b.Default, v)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownIntentKind, it)
	}
}
