// Package executor runs the intents of a parsed command strictly in order,
// awaiting each bound callback before starting the next one.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/logging"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// StepError identifies the intent whose callback failed.
type StepError struct {
	Index  int
	Intent domain.Intent
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index, e.Intent.Kind(), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepResult is the outcome of one intent.
type StepResult struct {
	Index    int               `json:"index"`
	Intent   domain.Intent     `json:"-"`
	Kind     domain.Kind       `json:"kind"`
	Status   domain.StepStatus `json:"status"`
	Error    string            `json:"error,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Report is the per-step outcome log of one execution.
type Report struct {
	ID    string       `json:"id"`
	Steps []StepResult `json:"steps"`
}

// Count returns the number of steps with the given status.
func (r Report) Count(status domain.StepStatus) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Executor is stateless between executions and safe for concurrent use.
type Executor struct {
	stepDelay       time.Duration
	postLoadDelay   time.Duration
	continueOnError bool
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	sleep           Sleeper
	now             func() time.Time
	newID           func() string
}

// Option configures an Executor.
type Option func(*Executor)

// WithStepDelay sets the pause between consecutive steps.
func WithStepDelay(d time.Duration) Option {
	return func(e *Executor) { e.stepDelay = d }
}

// WithPostLoadDelay sets the pause, measured from the end of a LoadPatient,
// before the first data-display step that follows it.
func WithPostLoadDelay(d time.Duration) Option {
	return func(e *Executor) { e.postLoadDelay = d }
}

// WithContinueOnError runs the remaining steps after a failure and joins the errors.
func WithContinueOnError(enabled bool) Option {
	return func(e *Executor) { e.continueOnError = enabled }
}

// WithHooks sets the step lifecycle hooks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Executor) { e.hooks = h }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithSleeper replaces the delay implementation. Tests use it to run without real waits.
func WithSleeper(s Sleeper) Option {
	return func(e *Executor) { e.sleep = s }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor with no delays.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger: logging.NewNop(),
		sleep:  sleepContext,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs intents on the calling goroutine and returns when the last
// step finished, a step failed or ctx was cancelled.
func (e *Executor) Execute(ctx context.Context, intents []domain.Intent, b Bindings) (Report, error) {
	s := e.newSession(ctx, intents)
	s.run(e, b)
	return s.Wait()
}

// Start runs intents on a new goroutine.
func (e *Executor) Start(ctx context.Context, intents []domain.Intent, b Bindings) *Session {
	s := e.newSession(ctx, intents)
	go s.run(e, b)
	return s
}

func (e *Executor) newSession(ctx context.Context, intents []domain.Intent) *Session {
	runCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:      e.newID(),
		parent:  ctx,
		runCtx:  runCtx,
		cancel:  cancel,
		intents: domain.CloneIntents(intents),
		done:    make(chan struct{}),
		current: -1,
	}
	s.report = Report{ID: s.ID, Steps: make([]StepResult, len(intents))}
	for i, it := range intents {
		s.report.Steps[i] = StepResult{Index: i, Intent: it, Kind: it.Kind(), Status: domain.StepSkipped}
	}
	return s
}

// delayBefore returns the pause before step i.
func (e *Executor) delayBefore(i int, it domain.Intent, pendingLoad bool, loadedAt time.Time) time.Duration {
	if i == 0 {
		return 0
	}
	wait := e.stepDelay
	if pendingLoad && domain.IsDataDisplay(it) {
		if d := e.postLoadDelay - e.now().Sub(loadedAt); d > wait {
			wait = d
		}
	}
	return wait
}

// invoke runs one binding. A panicking callback is reported as a failed step.
func (e *Executor) invoke(ctx context.Context, b Bindings, it domain.Intent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s binding: %v", it.Kind(), r)
		}
	}()
	return b.Dispatch(ctx, it)
}

func (e *Executor) finishStep(ctx context.Context, ev *domain.StepEvent) {
	if e.hooks.OnStepFinish != nil {
		e.hooks.OnStepFinish(ctx, ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func cancelled(index int, cause error) error {
	if cause == nil || errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%w before step %d", domain.ErrExecutionCancelled, index)
	}
	return fmt.Errorf("%w before step %d: %w", domain.ErrExecutionCancelled, index, cause)
}
