package mdxvision

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/display"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/gesture"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/macro"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/parser"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
)

// Engine is the command pipeline of one device session. It wires the
// normalizer, parser, macro registry, executor, gesture recognizer and
// display state together.
type Engine struct {
	normalizer *normalize.Normalizer
	parser     *parser.Parser
	registry   *macro.Registry
	executor   *executor.Executor
	gestures   *gesture.Recognizer
	display    *display.Manager

	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	sessionID   string
	userID      string
	language    string
	requireWake bool
	store       ports.MacroStore

	normalizeOpts []normalize.Option
	gestureOpts   []gesture.Option
	executorOpts  []executor.Option
	registryOpts  []macro.Option

	mu      sync.Mutex
	current *executor.Session
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMacroStore persists macros through store. Without it macros live in memory.
func WithMacroStore(store ports.MacroStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithUserID scopes macros to a user (default "default").
func WithUserID(id string) Option {
	return func(e *Engine) {
		e.userID = id
	}
}

// WithSessionID labels hooks and logs with the device session.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		e.sessionID = id
	}
}

// WithLanguage sets the language used when Interpret receives none (default "en").
func WithLanguage(lang string) Option {
	return func(e *Engine) {
		e.language = lang
	}
}

// WithRequireWakePhrase ignores utterances that contain no wake phrase.
func WithRequireWakePhrase(required bool) Option {
	return func(e *Engine) {
		e.requireWake = required
	}
}

// WithNormalizerOptions configures the text normalizer.
func WithNormalizerOptions(opts ...normalize.Option) Option {
	return func(e *Engine) {
		e.normalizeOpts = append(e.normalizeOpts, opts...)
	}
}

// WithGestureOptions configures the gesture recognizer.
func WithGestureOptions(opts ...gesture.Option) Option {
	return func(e *Engine) {
		e.gestureOpts = append(e.gestureOpts, opts...)
	}
}

// WithExecutorOptions configures the intent executor.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(e *Engine) {
		e.executorOpts = append(e.executorOpts, opts...)
	}
}

// WithRegistryOptions configures the macro registry.
func WithRegistryOptions(opts ...macro.Option) Option {
	return func(e *Engine) {
		e.registryOpts = append(e.registryOpts, opts...)
	}
}

// New builds an engine and loads the user's macros from the store.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		userID:   "default",
		language: "en",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.sessionID != "" {
		e.logger = e.logger.With("session_id", e.sessionID)
	}

	e.normalizer = normalize.New(e.normalizeOpts...)

	regOpts := []macro.Option{macro.WithLogger(e.logger), macro.WithWakePhrases(e.normalizer.WakePhrases()...)}
	e.registry = macro.NewRegistry(e.store, e.userID, append(regOpts, e.registryOpts...)...)
	if err := e.registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize macros for %q: %w", e.userID, err)
	}

	e.parser = parser.New(parser.WithMacros(e.registry), parser.WithCorrector(e.normalizer.Correct))
	e.gestures = gesture.New(e.gestureOpts...)
	e.display = display.New()
	e.display.Subscribe(func(ev domain.DisplayEvent) {
		if e.hooks.OnDisplayChange != nil {
			ev.SessionID = e.sessionID
			e.hooks.OnDisplayChange(context.Background(), &ev)
		}
	})

	execHooks := e.hooks
	userStart, userFinish := e.hooks.OnStepStart, e.hooks.OnStepFinish
	execHooks.OnStepStart = func(ctx context.Context, ev *domain.StepEvent) {
		ev.SessionID = e.sessionID
		if userStart != nil {
			userStart(ctx, ev)
		}
	}
	execHooks.OnStepFinish = func(ctx context.Context, ev *domain.StepEvent) {
		ev.SessionID = e.sessionID
		if ev.Status == domain.StepSucceeded {
			e.display.ApplyIntent(ev.Intent)
		}
		if userFinish != nil {
			userFinish(ctx, ev)
		}
	}
	execOpts := []executor.Option{executor.WithLogger(e.logger), executor.WithHooks(execHooks)}
	e.executor = executor.New(append(execOpts, e.executorOpts...)...)

	return e, nil
}

// Interpret normalizes and parses one finalized transcript. An empty
// language uses the engine default.
func (e *Engine) Interpret(ctx context.Context, raw, language string) domain.ParsedCommand {
	if language == "" {
		language = e.language
	}
	res := e.normalizer.Analyze(raw, language)
	cmd := domain.ParsedCommand{NormalizedText: res.Text, OriginalText: raw, Language: language}

	var expansions int
	if !e.requireWake || res.WakeDetected {
		tr := e.parser.Trace(res.Text)
		cmd.Intents = tr.Intents
		expansions = len(tr.Macros)
	}

	if e.hooks.OnCommand != nil {
		e.hooks.OnCommand(ctx, &domain.CommandEvent{
			SessionID:       e.sessionID,
			Command:         cmd,
			WakeDetected:    res.WakeDetected,
			MacroExpansions: expansions,
		})
	}
	return cmd
}

// Execute runs the command on the calling goroutine.
func (e *Engine) Execute(ctx context.Context, cmd domain.ParsedCommand, b executor.Bindings) (executor.Report, error) {
	return e.executor.Execute(ctx, cmd.Intents, e.bind(b))
}

// Submit cancels the execution started by the previous Submit, if still
// running, and starts cmd in the background.
func (e *Engine) Submit(ctx context.Context, cmd domain.ParsedCommand, b executor.Bindings) *executor.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Cancel()
	}
	e.current = e.executor.Start(ctx, cmd.Intents, e.bind(b))
	return e.current
}

// bind routes CreateMacro to the registry unless the caller handles it.
func (e *Engine) bind(b executor.Bindings) executor.Bindings {
	if b.CreateMacro == nil {
		b.CreateMacro = func(ctx context.Context, cm domain.CreateMacro) error {
			return e.registry.Register(ctx, cm.Trigger, cm.Actions)
		}
	}
	return b
}

// HandleSample feeds the gesture recognizer and applies completed gestures
// to the display.
func (e *Engine) HandleSample(ctx context.Context, s domain.MotionSample) []domain.GestureEvent {
	return e.emit(ctx, e.gestures.Process(s))
}

// FinishGesture signals the end of a motion burst.
func (e *Engine) FinishGesture(ctx context.Context, at time.Time) []domain.GestureEvent {
	return e.emit(ctx, e.gestures.Finish(at))
}

// Tick expires abandoned gestures when no sample arrived for a while.
func (e *Engine) Tick(at time.Time) {
	e.gestures.Tick(at)
}

func (e *Engine) emit(ctx context.Context, events []domain.GestureEvent) []domain.GestureEvent {
	for i := range events {
		if e.hooks.OnGesture != nil {
			e.hooks.OnGesture(ctx, &events[i])
		}
		e.display.ApplyGesture(events[i])
	}
	return events
}

// Close cancels any background execution.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current != nil {
		e.current.Cancel()
		e.current = nil
	}
}

func (e *Engine) Display() *display.Manager         { return e.display }
func (e *Engine) Macros() *macro.Registry           { return e.registry }
func (e *Engine) Gestures() *gesture.Recognizer     { return e.gestures }
func (e *Engine) Normalizer() *normalize.Normalizer { return e.normalizer }
func (e *Engine) Parser() *parser.Parser            { return e.parser }

// SessionID returns the device session label, if any.
func (e *Engine) SessionID() string { return e.sessionID }
