package tui

import "github.com/charmbracelet/glamour"

const helpWrap = 72

// NewRenderer renders the help overlay markdown for the terminal. When no
// glamour style can be built the markdown is shown as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(helpWrap))
	if err != nil {
		return func(md string) (string, error) { return md, nil }
	}
	return r.Render
}
