package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   func(*Manager)
		action func(*Manager) domain.DisplayState
		want   domain.DisplayState
	}{
		{"Show From Hidden", func(*Manager) {}, (*Manager).Show, domain.DisplayCompact},
		{"Show From Expanded Is No-op", func(m *Manager) { m.Expand() }, (*Manager).Show, domain.DisplayExpanded},
		{"Hide From Expanded", func(m *Manager) { m.Expand() }, (*Manager).Hide, domain.DisplayHidden},
		{"Expand From Hidden", func(*Manager) {}, (*Manager).Expand, domain.DisplayExpanded},
		{"Expand From Compact", func(m *Manager) { m.Show() }, (*Manager).Expand, domain.DisplayExpanded},
		{"Minimize From Expanded", func(m *Manager) { m.Expand() }, (*Manager).Minimize, domain.DisplayCompact},
		{"Minimize From Hidden Is No-op", func(*Manager) {}, (*Manager).Minimize, domain.DisplayHidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.from(m)
			assert.Equal(t, tt.want, tt.action(m))
			assert.Equal(t, tt.want, m.State())
		})
	}
}

func TestToggle_ThreeTimesReturnsToHidden(t *testing.T) {
	m := New()
	assert.Equal(t, domain.DisplayHidden, m.State())
	assert.Equal(t, domain.DisplayCompact, m.Toggle())
	assert.Equal(t, domain.DisplayExpanded, m.Toggle())
	assert.Equal(t, domain.DisplayHidden, m.Toggle())
}

func TestApply(t *testing.T) {
	m := New()
	s, ok := m.Apply("expand")
	assert.True(t, ok)
	assert.Equal(t, domain.DisplayExpanded, s)

	s, ok = m.Apply("fly")
	assert.False(t, ok)
	assert.Equal(t, domain.DisplayExpanded, s)
}

func TestApplyIntentAndGesture(t *testing.T) {
	m := New()

	assert.Equal(t, domain.DisplayCompact, m.ApplyIntent(domain.LoadPatient{Identifier: "1"}))
	assert.Equal(t, domain.DisplayExpanded, m.ApplyIntent(domain.ShowSection{Section: domain.SectionVitals}))
	assert.Equal(t, domain.DisplayExpanded, m.ApplyIntent(domain.GenerateNote{}))

	assert.Equal(t, domain.DisplayExpanded, m.ApplyGesture(domain.GestureEvent{Kind: domain.GestureNod}))
	assert.Equal(t, domain.DisplayHidden, m.ApplyGesture(domain.GestureEvent{Kind: domain.GestureShake}))
	assert.Equal(t, domain.DisplayCompact, m.ApplyGesture(domain.GestureEvent{Kind: domain.GestureDoubleNod}))
}

func TestSubscribe(t *testing.T) {
	m := New()
	var events []domain.DisplayEvent
	unsubscribe := m.Subscribe(func(ev domain.DisplayEvent) { events = append(events, ev) })

	m.Show()
	m.Show() // no change, no event
	m.Expand()
	unsubscribe()
	m.Hide()

	assert.Equal(t, []domain.DisplayEvent{
		{From: domain.DisplayHidden, To: domain.DisplayCompact},
		{From: domain.DisplayCompact, To: domain.DisplayExpanded},
	}, events)
}
