// Package display tracks the visibility state of the head-mounted overlay:
// hidden, compact or expanded.
package display

import (
	"sync"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Listener observes state changes. It runs synchronously after the change
// and must not call back into the Manager.
type Listener func(domain.DisplayEvent)

// Manager owns the display state of one session. It starts hidden.
type Manager struct {
	mu        sync.Mutex
	state     domain.DisplayState
	listeners map[int]Listener
	nextID    int
}

// New returns a hidden display.
func New() *Manager {
	return &Manager{state: domain.DisplayHidden, listeners: make(map[int]Listener)}
}

// State returns the current state.
func (m *Manager) State() domain.DisplayState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Show moves hidden to compact.
func (m *Manager) Show() domain.DisplayState {
	return m.transition(func(s domain.DisplayState) domain.DisplayState {
		if s == domain.DisplayHidden {
			return domain.DisplayCompact
		}
		return s
	})
}

// Hide moves any state to hidden.
func (m *Manager) Hide() domain.DisplayState {
	return m.transition(func(domain.DisplayState) domain.DisplayState {
		return domain.DisplayHidden
	})
}

// Expand moves hidden or compact to expanded.
func (m *Manager) Expand() domain.DisplayState {
	return m.transition(func(domain.DisplayState) domain.DisplayState {
		return domain.DisplayExpanded
	})
}

// Minimize moves expanded to compact.
func (m *Manager) Minimize() domain.DisplayState {
	return m.transition(func(s domain.DisplayState) domain.DisplayState {
		if s == domain.DisplayExpanded {
			return domain.DisplayCompact
		}
		return s
	})
}

// Toggle cycles hidden, compact, expanded, hidden.
func (m *Manager) Toggle() domain.DisplayState {
	return m.transition(func(s domain.DisplayState) domain.DisplayState {
		switch s {
		case domain.DisplayHidden:
			return domain.DisplayCompact
		case domain.DisplayCompact:
			return domain.DisplayExpanded
		default:
			return domain.DisplayHidden
		}
	})
}

// Apply performs a named action ("show", "hide", "expand", "minimize", "toggle").
func (m *Manager) Apply(action string) (domain.DisplayState, bool) {
	switch action {
	case "show":
		return m.Show(), true
	case "hide":
		return m.Hide(), true
	case "expand":
		return m.Expand(), true
	case "minimize":
		return m.Minimize(), true
	case "toggle":
		return m.Toggle(), true
	default:
		return m.State(), false
	}
}

// ApplyIntent reacts to an executed intent: loading a patient shows the
// overlay and data or list views expand it.
func (m *Manager) ApplyIntent(it domain.Intent) domain.DisplayState {
	switch it.(type) {
	case domain.LoadPatient:
		return m.Show()
	case domain.ShowSection, domain.ShowWorklist, domain.ShowHelp:
		return m.Expand()
	default:
		return m.State()
	}
}

// ApplyGesture reacts to a head gesture: a double nod toggles, a shake hides.
func (m *Manager) ApplyGesture(ev domain.GestureEvent) domain.DisplayState {
	switch ev.Kind {
	case domain.GestureDoubleNod:
		return m.Toggle()
	case domain.GestureShake:
		return m.Hide()
	default:
		return m.State()
	}
}

// Subscribe registers fn and returns a function that removes it.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Manager) transition(next func(domain.DisplayState) domain.DisplayState) domain.DisplayState {
	m.mu.Lock()
	from := m.state
	to := next(from)
	m.state = to
	var notify []Listener
	if to != from {
		notify = make([]Listener, 0, len(m.listeners))
		for id := 0; id < m.nextID; id++ {
			if l, ok := m.listeners[id]; ok {
				notify = append(notify, l)
			}
		}
	}
	m.mu.Unlock()

	ev := domain.DisplayEvent{From: from, To: to}
	for _, l := range notify {
		l(ev)
	}
	return to
}
