// Package gesture recognizes head nods, double nods and shakes from a stream
// of motion samples. Each gesture is a small state machine governed by a
// threshold, a timeout and a cooldown.
package gesture

import (
	"sync"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Recognizer runs the nod and shake machines side by side. It never blocks on
// anything but its own short critical section.
type Recognizer struct {
	mu      sync.Mutex
	nod     *machine
	shake   *machine
	enabled bool
}

// Option configures a Recognizer.
type Option func(*options)

type options struct {
	nod, shake Config
	disabled   bool
}

// WithNodConfig overrides the nod machine tuning.
func WithNodConfig(c Config) Option {
	return func(o *options) { o.nod = c }
}

// WithShakeConfig overrides the shake machine tuning.
func WithShakeConfig(c Config) Option {
	return func(o *options) { o.shake = c }
}

// WithDisabled starts the recognizer disabled.
func WithDisabled() Option {
	return func(o *options) { o.disabled = true }
}

// New returns an enabled recognizer with the default tuning.
func New(opts ...Option) *Recognizer {
	o := options{nod: DefaultNodConfig(), shake: DefaultShakeConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Recognizer{
		nod:     newNod(o.nod),
		shake:   newShake(o.shake),
		enabled: !o.disabled,
	}
}

// Process feeds one sample and returns the gestures it completed, nods first.
func (r *Recognizer) Process(s domain.MotionSample) []domain.GestureEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return nil
	}
	return append(r.nod.process(s), r.shake.process(s)...)
}

// Finish signals the end of a motion burst. A machine in its terminal phase
// emits its gesture; any other machine resets silently.
func (r *Recognizer) Finish(at time.Time) []domain.GestureEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return nil
	}
	return append(r.nod.finish(at), r.shake.finish(at)...)
}

// Tick expires gestures whose timeout elapsed without a new sample.
func (r *Recognizer) Tick(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	r.nod.expire(at)
	r.shake.expire(at)
}

// SetEnabled toggles recognition. Disabling drops any gesture in progress.
func (r *Recognizer) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
	if !enabled {
		r.nod.reset()
		r.shake.reset()
	}
}

// Enabled reports whether samples are being recognized.
func (r *Recognizer) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Phase reports the current phase of the nod or shake machine.
// A double nod is reported through the nod machine.
func (r *Recognizer) Phase(kind domain.GestureKind) domain.GesturePhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case domain.GestureShake:
		return r.shake.phase()
	default:
		return r.nod.phase()
	}
}
