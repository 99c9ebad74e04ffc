package domain

import "time"

// Macro binds a user-defined trigger phrase to an ordered list of intents.
type Macro struct {
	Trigger   string    `json:"trigger"`
	Actions   []Intent  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the macro.
func (m Macro) Clone() Macro {
	m.Actions = CloneIntents(m.Actions)
	return m
}

// MacroMatch locates a registered trigger inside an utterance.
// Start and End are byte offsets into the searched text.
type MacroMatch struct {
	Trigger string
	Start   int
	End     int
	Actions []Intent
}
