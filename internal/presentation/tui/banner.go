package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the REPL banner with the engine version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct{ text, color string }{
		{"  __  __ ____  __  __  __     ___     _", "#38bdf8"},
		{" |  \\/  |  _ \\ \\ \\/ /  \\ \\   / (_)___(_) ___  _ __", "#22d3ee"},
		{" | |\\/| | | | | \\  /    \\ \\ / /| / __| |/ _ \\| '_ \\", "#2dd4bf"},
		{" | |  | | |_| | /  \\     \\ V / | \\__ \\ | (_) | | | |", "#34d399"},
		{" |_|  |_|____/ /_/\\_\\     \\_/  |_|___/_|\\___/|_| |_|", "#4ade80"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, strings.Repeat(" ", 38)+p.String("v"+version).Faint().String())
	fmt.Fprintln(w)
}

// Highlighter colors REPL status lines: failures red, display changes cyan,
// intent chains bold.
func Highlighter(p termenv.Profile) func(string) string {
	return func(line string) string {
		s := p.String(line)
		switch {
		case strings.Contains(line, "failed"), strings.HasPrefix(line, "error:"):
			s = s.Foreground(p.Color("#ef4444"))
		case strings.HasPrefix(line, "display:"):
			s = s.Foreground(p.Color("#22d3ee"))
		case strings.HasPrefix(line, "»"):
			s = s.Bold()
		default:
			s = s.Faint()
		}
		return s.String()
	}
}
