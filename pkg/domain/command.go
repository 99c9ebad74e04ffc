package domain

// ParsedCommand is the result of interpreting one utterance.
// It is built once, handed to the executor and then discarded.
type ParsedCommand struct {
	Intents        []Intent `json:"intents"`
	NormalizedText string   `json:"normalized_text"`
	OriginalText   string   `json:"original_text"`
	Language       string   `json:"language,omitempty"`
}

// Empty reports whether the command carries no actions.
func (c ParsedCommand) Empty() bool {
	return len(c.Intents) == 0
}

// Recognized reports whether at least one intent is not Unknown.
func (c ParsedCommand) Recognized() bool {
	for _, it := range c.Intents {
		if it.Kind() != KindUnknown {
			return true
		}
	}
	return false
}
