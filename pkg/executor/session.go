package executor

import (
	"context"
	"errors"
	"sync"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Session is one in-flight execution.
type Session struct {
	ID string

	parent  context.Context
	runCtx  context.Context
	cancel  context.CancelFunc
	intents []domain.Intent
	done    chan struct{}

	mu      sync.Mutex
	report  Report
	current int
	err     error
}

// Cancel stops the execution before its next step. A callback already
// running is not interrupted: callbacks receive the caller's context, not
// the session's.
func (s *Session) Cancel() {
	s.cancel()
}

// Done is closed when the execution ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the execution ends and returns its report.
func (s *Session) Wait() (Report, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyReport(), s.err
}

// Snapshot returns the report so far.
func (s *Session) Snapshot() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyReport()
}

// Current returns the index of the running or last started step, or -1.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) copyReport() Report {
	r := s.report
	r.Steps = append([]StepResult(nil), s.report.Steps...)
	return r
}

func (s *Session) update(i int, fn func(*StepResult)) {
	s.mu.Lock()
	fn(&s.report.Steps[i])
	s.mu.Unlock()
}

func (s *Session) stopAt(i int) error {
	err := cancelled(i, context.Cause(s.runCtx))
	s.mu.Lock()
	for j := i; j < len(s.report.Steps); j++ {
		s.report.Steps[j].Status = domain.StepCancelled
	}
	s.mu.Unlock()
	return err
}

func (s *Session) run(e *Executor, b Bindings) {
	err := s.steps(e, b)

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.cancel()
	close(s.done)
}

func (s *Session) steps(e *Executor, b Bindings) error {
	log := e.logger.With("session_id", s.ID)

	var (
		errs        []error
		pendingLoad bool
		loadedAt    = e.now()
	)
	for i, it := range s.intents {
		if s.runCtx.Err() != nil {
			return s.stopAt(i)
		}
		if wait := e.delayBefore(i, it, pendingLoad, loadedAt); wait > 0 {
			if err := e.sleep(s.runCtx, wait); err != nil {
				return s.stopAt(i)
			}
		}
		if s.runCtx.Err() != nil {
			return s.stopAt(i)
		}
		if domain.IsDataDisplay(it) {
			pendingLoad = false
		}

		s.mu.Lock()
		s.current = i
		s.mu.Unlock()

		ev := &domain.StepEvent{ExecutionID: s.ID, Index: i, Intent: it}
		if e.hooks.OnStepStart != nil {
			e.hooks.OnStepStart(s.parent, ev)
		}
		log.Debug("Executing step", "step", i, "intent", it.Kind())

		started := e.now()
		err := e.invoke(s.parent, b, it)
		ev.Duration = e.now().Sub(started)
		ev.Err = err

		if err != nil {
			ev.Status = domain.StepFailed
		} else {
			ev.Status = domain.StepSucceeded
			if it.Kind() == domain.KindLoadPatient {
				pendingLoad = true
				loadedAt = e.now()
			}
		}
		s.update(i, func(r *StepResult) {
			r.Status = ev.Status
			r.Duration = ev.Duration
			if err != nil {
				r.Error = err.Error()
			}
		})
		e.finishStep(s.parent, ev)

		if err != nil {
			stepErr := &StepError{Index: i, Intent: it, Err: err}
			log.Warn("Step failed", "step", i, "intent", it.Kind(), "error", err)
			if !e.continueOnError {
				return stepErr
			}
			errs = append(errs, stepErr)
		}
	}
	return errors.Join(errs...)
}
