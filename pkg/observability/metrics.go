package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Metrics holds the engine's prometheus collectors.
type Metrics struct {
	Utterances      prometheus.Counter
	Intents         *prometheus.CounterVec
	MacroExpansions prometheus.Counter
	Steps           *prometheus.CounterVec
	StepDuration    *prometheus.HistogramVec
	Gestures        *prometheus.CounterVec
	Display         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Utterances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdx_utterances_total",
			Help: "Total number of interpreted utterances",
		}),
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdx_intents_total",
			Help: "Total number of parsed intents",
		}, []string{"kind"}),
		MacroExpansions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdx_macro_expansions_total",
			Help: "Total number of macro triggers expanded while parsing",
		}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdx_steps_total",
			Help: "Total number of executed steps by outcome",
		}, []string{"kind", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdx_step_duration_seconds",
			Help:    "Duration of bound intent callbacks",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		Gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdx_gestures_total",
			Help: "Total number of recognized head gestures",
		}, []string{"kind"}),
		Display: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdx_display_transitions_total",
			Help: "Total number of display state transitions by target state",
		}, []string{"to"}),
	}
	if reg != nil {
		reg.MustRegister(m.Utterances, m.Intents, m.MacroExpansions, m.Steps, m.StepDuration, m.Gestures, m.Display)
	}
	return m
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			m.Utterances.Inc()
			m.MacroExpansions.Add(float64(e.MacroExpansions))
			for _, it := range e.Command.Intents {
				m.Intents.WithLabelValues(string(it.Kind())).Inc()
			}
		},
		OnStepFinish: func(_ context.Context, e *domain.StepEvent) {
			kind := string(e.Intent.Kind())
			m.Steps.WithLabelValues(kind, string(e.Status)).Inc()
			m.StepDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
		},
		OnGesture: func(_ context.Context, e *domain.GestureEvent) {
			m.Gestures.WithLabelValues(string(e.Kind)).Inc()
		},
		OnDisplayChange: func(_ context.Context, e *domain.DisplayEvent) {
			m.Display.WithLabelValues(string(e.To)).Inc()
		},
	}
}
