package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTime is a manual clock whose sleeper advances time instantly.
type fakeTime struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeTime() *fakeTime {
	return &fakeTime{now: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fakeTime) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.sleeps = append(f.sleeps, d)
	f.mu.Unlock()
	f.Advance(d)
	return nil
}

// recorder binds every intent to a call log.
type recorder struct {
	mu    sync.Mutex
	calls []domain.Kind
}

func (r *recorder) bindings() Bindings {
	return Bindings{Default: func(_ context.Context, it domain.Intent) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, it.Kind())
		return nil
	}}
}

func statuses(r Report) []domain.StepStatus {
	out := make([]domain.StepStatus, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Status
	}
	return out
}

func TestExecute_InOrder(t *testing.T) {
	rec := &recorder{}
	intents := []domain.Intent{
		domain.LoadPatient{Identifier: "3"},
		domain.ShowSection{Section: domain.SectionVitals},
		domain.ShowSection{Section: domain.SectionLabs},
	}

	rep, err := New().Execute(context.Background(), intents, rec.bindings())
	require.NoError(t, err)

	assert.Equal(t, domain.KindsOf(intents), rec.calls)
	assert.Equal(t, 3, rep.Count(domain.StepSucceeded))
	_, perr := uuid.Parse(rep.ID)
	assert.NoError(t, perr)
}

func TestExecute_FailFast(t *testing.T) {
	boom := errors.New("ehr unavailable")
	var calls []string
	b := Bindings{
		ShowWorklist: func(context.Context, domain.ShowWorklist) error {
			calls = append(calls, "A")
			return nil
		},
		LoadPatient: func(context.Context, domain.LoadPatient) error {
			calls = append(calls, "B")
			return boom
		},
		ShowHelp: func(context.Context, domain.ShowHelp) error {
			calls = append(calls, "C")
			return nil
		},
	}
	intents := []domain.Intent{domain.ShowWorklist{}, domain.LoadPatient{Identifier: "1"}, domain.ShowHelp{}}

	rep, err := New().Execute(context.Background(), intents, b)

	assert.Equal(t, []string{"A", "B"}, calls)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, domain.LoadPatient{Identifier: "1"}, stepErr.Intent)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []domain.StepStatus{domain.StepSucceeded, domain.StepFailed, domain.StepSkipped}, statuses(rep))
	assert.Equal(t, "ehr unavailable", rep.Steps[1].Error)
}

func TestExecute_ContinueOnError(t *testing.T) {
	rec := &recorder{}
	b := rec.bindings()
	b.ShowSection = func(context.Context, domain.ShowSection) error { return errors.New("no data") }

	intents := []domain.Intent{
		domain.ShowSection{Section: domain.SectionLabs},
		domain.ShowHelp{},
		domain.ShowSection{Section: domain.SectionNotes},
	}
	rep, err := New(WithContinueOnError(true)).Execute(context.Background(), intents, b)

	require.Error(t, err)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 0, stepErr.Index)
	assert.Equal(t, []domain.Kind{domain.KindShowHelp}, rec.calls)
	assert.Equal(t, []domain.StepStatus{domain.StepFailed, domain.StepSucceeded, domain.StepFailed}, statuses(rep))
}

func TestExecute_UnboundStepFails(t *testing.T) {
	_, err := New().Execute(context.Background(), []domain.Intent{domain.GenerateNote{}}, Bindings{})
	assert.ErrorIs(t, err, domain.ErrNoBinding)
}

func TestExecute_PanicIsAStepFailure(t *testing.T) {
	b := Bindings{StartCapture: func(context.Context, domain.StartCapture) error { panic("mic gone") }}

	rep, err := New().Execute(context.Background(), []domain.Intent{domain.StartCapture{}, domain.StopCapture{}}, b)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Contains(t, stepErr.Error(), "mic gone")
	assert.Equal(t, []domain.StepStatus{domain.StepFailed, domain.StepSkipped}, statuses(rep))
}

func TestExecute_EmptyIsSuccess(t *testing.T) {
	rep, err := New().Execute(context.Background(), nil, Bindings{})
	require.NoError(t, err)
	assert.Empty(t, rep.Steps)
}

func TestExecute_Delays(t *testing.T) {
	t.Run("Post Load Delay Precedes First Data Display", func(t *testing.T) {
		ft := newFakeTime()
		rec := &recorder{}
		e := New(WithStepDelay(100*time.Millisecond), WithPostLoadDelay(time.Second), WithSleeper(ft.Sleep), WithClock(ft.Now))

		_, err := e.Execute(context.Background(), []domain.Intent{
			domain.LoadPatient{Identifier: "1"},
			domain.ShowSection{Section: domain.SectionVitals},
			domain.ShowSection{Section: domain.SectionLabs},
		}, rec.bindings())
		require.NoError(t, err)

		assert.Equal(t, []time.Duration{time.Second, 100 * time.Millisecond}, ft.sleeps)
	})

	t.Run("Post Load Delay Counts From Load Completion", func(t *testing.T) {
		ft := newFakeTime()
		rec := &recorder{}
		b := rec.bindings()
		b.ShowWorklist = func(context.Context, domain.ShowWorklist) error {
			ft.Advance(300 * time.Millisecond)
			return nil
		}
		e := New(WithStepDelay(100*time.Millisecond), WithPostLoadDelay(time.Second), WithSleeper(ft.Sleep), WithClock(ft.Now))

		_, err := e.Execute(context.Background(), []domain.Intent{
			domain.LoadPatient{Identifier: "1"},
			domain.ShowWorklist{},
			domain.ShowSection{Section: domain.SectionVitals},
		}, b)
		require.NoError(t, err)

		assert.Equal(t, []time.Duration{100 * time.Millisecond, 600 * time.Millisecond}, ft.sleeps)
	})

	t.Run("Step Delay Wins When Larger", func(t *testing.T) {
		ft := newFakeTime()
		e := New(WithStepDelay(2*time.Second), WithPostLoadDelay(time.Second), WithSleeper(ft.Sleep), WithClock(ft.Now))

		_, err := e.Execute(context.Background(), []domain.Intent{
			domain.LoadPatient{Identifier: "1"},
			domain.ShowSection{Section: domain.SectionVitals},
		}, (&recorder{}).bindings())
		require.NoError(t, err)

		assert.Equal(t, []time.Duration{2 * time.Second}, ft.sleeps)
	})
}

func TestSession_CancelDoesNotAbortInFlightStep(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var sawCancel bool

	rec := &recorder{}
	b := rec.bindings()
	b.LoadPatient = func(ctx context.Context, _ domain.LoadPatient) error {
		close(entered)
		<-release
		sawCancel = ctx.Err() != nil
		return nil
	}

	s := New().Start(context.Background(), []domain.Intent{
		domain.LoadPatient{Identifier: "1"},
		domain.ShowSection{Section: domain.SectionVitals},
		domain.ShowSection{Section: domain.SectionLabs},
	}, b)

	<-entered
	assert.Equal(t, 0, s.Current())
	s.Cancel()
	close(release)

	rep, err := s.Wait()
	assert.ErrorIs(t, err, domain.ErrExecutionCancelled)
	assert.False(t, sawCancel)
	assert.Empty(t, rec.calls)
	assert.Equal(t, []domain.StepStatus{domain.StepSucceeded, domain.StepCancelled, domain.StepCancelled}, statuses(rep))
}

func TestSession_CancelInterruptsDelay(t *testing.T) {
	started := make(chan struct{})
	b := Bindings{
		ShowWorklist: func(context.Context, domain.ShowWorklist) error {
			close(started)
			return nil
		},
		ShowHelp: func(context.Context, domain.ShowHelp) error {
			t.Error("step after cancellation must not run")
			return nil
		},
	}

	s := New(WithStepDelay(time.Hour)).Start(context.Background(), []domain.Intent{domain.ShowWorklist{}, domain.ShowHelp{}}, b)
	<-started
	s.Cancel()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("execution did not stop")
	}
	_, err := s.Wait()
	assert.ErrorIs(t, err, domain.ErrExecutionCancelled)
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	rep, err := New().Execute(ctx, []domain.Intent{domain.ShowHelp{}}, rec.bindings())

	assert.ErrorIs(t, err, domain.ErrExecutionCancelled)
	assert.Empty(t, rec.calls)
	assert.Equal(t, []domain.StepStatus{domain.StepCancelled}, statuses(rep))
}

func TestExecute_DeadlineIsWrapped(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := New().Execute(ctx, []domain.Intent{domain.ShowHelp{}}, (&recorder{}).bindings())
	assert.ErrorIs(t, err, domain.ErrExecutionCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_Hooks(t *testing.T) {
	var started, finished []domain.StepStatus
	hooks := domain.LifecycleHooks{
		OnStepStart:  func(_ context.Context, ev *domain.StepEvent) { started = append(started, ev.Status) },
		OnStepFinish: func(_ context.Context, ev *domain.StepEvent) { finished = append(finished, ev.Status) },
	}
	b := (&recorder{}).bindings()
	b.ShowHelp = func(context.Context, domain.ShowHelp) error { return errors.New("x") }

	_, _ = New(WithHooks(hooks)).Execute(context.Background(), []domain.Intent{domain.ShowWorklist{}, domain.ShowHelp{}}, b)

	assert.Equal(t, []domain.StepStatus{"", ""}, started)
	assert.Equal(t, []domain.StepStatus{domain.StepSucceeded, domain.StepFailed}, finished)
}

func TestDispatch_TypedBeatsDefault(t *testing.T) {
	var got string
	b := Bindings{
		CheckIn: func(_ context.Context, c domain.CheckIn) error {
			got = "typed"
			assert.Equal(t, 4, c.Index)
			return nil
		},
		Default: func(context.Context, domain.Intent) error {
			got = "default"
			return nil
		},
	}
	require.NoError(t, b.Dispatch(context.Background(), domain.CheckIn{Index: 4}))
	assert.Equal(t, "typed", got)
	require.NoError(t, b.Dispatch(context.Background(), domain.GenerateNote{}))
	assert.Equal(t, "default", got)
}
