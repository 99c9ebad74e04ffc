package gesture

import (
	"math"
	"time"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// machine recognizes one gesture as a fixed sequence of signed threshold
// crossings on a single sensor channel.
type machine struct {
	kind    domain.GestureKind
	cfg     Config
	channel func(domain.MotionSample) float64
	phases  []domain.GesturePhase
	signs   []float64

	// step is the number of phases entered; 0 is idle.
	step  int
	start time.Time

	hasDone  bool
	lastDone time.Time
	// pairable is false once the last registered nod was consumed by a double nod.
	pairable bool
}

func newNod(cfg Config) *machine {
	return &machine{
		kind:    domain.GestureNod,
		cfg:     cfg,
		channel: func(s domain.MotionSample) float64 { return s.PitchRate },
		phases:  []domain.GesturePhase{domain.PhaseDown, domain.PhaseUp},
		signs:   []float64{1, -1},
	}
}

func newShake(cfg Config) *machine {
	cfg.DoubleWindow = 0
	return &machine{
		kind:    domain.GestureShake,
		cfg:     cfg,
		channel: func(s domain.MotionSample) float64 { return s.YawRate },
		phases:  []domain.GesturePhase{domain.PhaseLeft, domain.PhaseRight, domain.PhaseLeft2},
		signs:   []float64{1, -1, 1},
	}
}

func (m *machine) phase() domain.GesturePhase {
	if m.step == 0 {
		return domain.PhaseIdle
	}
	return m.phases[m.step-1]
}

func (m *machine) terminal() bool {
	return m.step == len(m.signs)
}

func (m *machine) reset() {
	m.step = 0
	m.start = time.Time{}
}

func (m *machine) expire(at time.Time) {
	if m.step > 0 && at.Sub(m.start) > m.cfg.Timeout {
		m.reset()
	}
}

func (m *machine) process(s domain.MotionSample) []domain.GestureEvent {
	m.expire(s.At)

	v := m.channel(s)
	if m.terminal() {
		if m.cfg.SettleRate > 0 && math.Abs(v) < m.cfg.SettleRate {
			return m.finish(s.At)
		}
		return nil
	}

	want := m.signs[m.step]
	if (want > 0 && v >= m.cfg.Threshold) || (want < 0 && v <= -m.cfg.Threshold) {
		if m.step == 0 {
			m.start = s.At
		}
		m.step++
	}
	return nil
}

func (m *machine) finish(at time.Time) []domain.GestureEvent {
	m.expire(at)
	if !m.terminal() {
		m.reset()
		return nil
	}
	started := m.start
	m.reset()

	if m.hasDone && at.Sub(m.lastDone) < m.cfg.Cooldown {
		return nil
	}

	events := []domain.GestureEvent{{Kind: m.kind, At: at}}
	if m.cfg.DoubleWindow > 0 && m.hasDone && m.pairable && started.Sub(m.lastDone) <= m.cfg.DoubleWindow {
		events = append(events, domain.GestureEvent{Kind: domain.GestureDoubleNod, At: at})
		m.pairable = false
	} else {
		m.pairable = true
	}
	m.hasDone = true
	m.lastDone = at
	return events
}
