// Package parser turns canonical command text into an ordered list of typed
// intents. It expands user macros, splits compound utterances on
// conjunctions and classifies each segment with a priority-ordered rule list.
//
// Parsing is pure and never fails: text that matches no rule becomes an
// Unknown intent carrying the segment.
package parser

import (
	"strings"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/textutil"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
)

// MacroMatcher finds the longest registered macro trigger contained in text.
type MacroMatcher interface {
	Match(text string) (domain.MacroMatch, bool)
}

// macroVerbs start a macro definition ("create macro <trigger> as <body>").
var macroVerbs = []string{"create", "define", "save", "record"}

// macroSeparators end a macro trigger, in priority order.
var macroSeparators = []string{":", "as", "to"}

// Parser is safe for concurrent use when its MacroMatcher is.
type Parser struct {
	macros  MacroMatcher
	correct func(string) string
}

// Option configures a Parser.
type Option func(*Parser)

// WithMacros enables macro expansion.
func WithMacros(m MacroMatcher) Option {
	return func(p *Parser) {
		p.macros = m
	}
}

// WithCorrector sets the mishearing correction applied to free-text slots.
func WithCorrector(fn func(string) string) Option {
	return func(p *Parser) {
		p.correct = fn
	}
}

// New returns a parser. Without options it expands no macros and corrects
// slots with the default normalizer table.
func New(opts ...Option) *Parser {
	p := &Parser{correct: normalize.New().Correct}
	for _, opt := range opts {
		opt(p)
	}
	if p.correct == nil {
		p.correct = func(s string) string { return s }
	}
	return p
}

// Trace records how an utterance was parsed.
type Trace struct {
	Intents  []domain.Intent `json:"-"`
	Segments []string        `json:"segments"`
	Macros   []string        `json:"macros,omitempty"`
}

// Parse returns the intents of text in utterance order.
func (p *Parser) Parse(text string) []domain.Intent {
	return p.Trace(text).Intents
}

// Trace parses text and reports the segments and macros involved.
func (p *Parser) Trace(text string) Trace {
	var tr Trace
	tr.Intents = p.parse(textutil.Collapse(strings.ToLower(text)), true, &tr)
	return tr
}

// ParseCommand builds the ParsedCommand of one utterance.
func (p *Parser) ParseCommand(original, normalized, language string) domain.ParsedCommand {
	return domain.ParsedCommand{
		Intents:        p.Parse(normalized),
		NormalizedText: normalized,
		OriginalText:   original,
		Language:       language,
	}
}

func (p *Parser) parse(text string, allowDefinition bool, tr *Trace) []domain.Intent {
	if text == "" {
		return nil
	}

	if isMacroDefinition(text) {
		if !allowDefinition {
			tr.Segments = append(tr.Segments, text)
			return []domain.Intent{domain.Unknown{RawText: text}}
		}
		return []domain.Intent{p.parseDefinition(text, tr)}
	}

	if p.macros != nil {
		// An assistant query is free text; triggers inside it are not expanded.
		if m, ok := p.macros.Match(text); ok && m.Start >= 0 && m.End <= len(text) && m.Start < m.End && m.Start < assistantIndex(text) {
			tr.Macros = append(tr.Macros, m.Trigger)
			out := p.parse(strings.TrimSpace(text[:m.Start]), false, tr)
			out = append(out, domain.CloneIntents(m.Actions)...)
			return append(out, p.parse(strings.TrimSpace(text[m.End:]), false, tr)...)
		}
	}

	var out []domain.Intent
	for _, seg := range split(text) {
		tr.Segments = append(tr.Segments, seg.text)
		if isMacroDefinition(seg.text) {
			out = append(out, domain.Unknown{RawText: seg.text})
			continue
		}
		it, greedy := p.classify(seg)

		// "order cbc and bmp" is one order, not an order and an unknown.
		if u, ok := it.(domain.Unknown); ok && seg.joiner == "and" && len(out) > 0 {
			if prev, ok := out[len(out)-1].(domain.Order); ok {
				prev.Details += " and " + u.RawText
				out[len(out)-1] = prev
				continue
			}
		}

		out = append(out, it)
		if greedy {
			break
		}
	}
	return out
}

func (p *Parser) classify(seg segment) (domain.Intent, bool) {
	for _, r := range rules {
		if it, ok := r.match(p, seg); ok {
			return it, r.greedy
		}
	}
	return domain.Unknown{RawText: seg.text}, false
}

// assistantIndex returns the offset of the first assistant name in text, or len(text).
func assistantIndex(text string) int {
	best := len(text)
	for _, name := range assistantNames {
		if i := textutil.IndexPhrase(text, name); i >= 0 && i < best {
			best = i
		}
	}
	return best
}

// IsMacroDefinition reports whether text would be parsed as a macro definition.
func IsMacroDefinition(text string) bool {
	return isMacroDefinition(text)
}

func isMacroDefinition(text string) bool {
	for _, v := range macroVerbs {
		if textutil.HasPhrasePrefix(text, v+" macro") {
			return true
		}
	}
	return false
}

// parseDefinition handles "create macro <trigger> (:|as|to) <body>". The body
// may use existing macros but may not define another one.
func (p *Parser) parseDefinition(text string, tr *Trace) domain.Intent {
	rest := text[strings.Index(text, "macro")+len("macro"):]
	rest = strings.TrimSpace(rest)

	for _, sep := range macroSeparators {
		var i int
		if sep == ":" {
			i = strings.Index(rest, sep)
		} else {
			i = textutil.IndexPhrase(rest, sep)
		}
		if i < 0 {
			continue
		}
		trigger := textutil.Canonical(strings.TrimSpace(rest[:i]))
		body := strings.TrimSpace(rest[i+len(sep):])
		if trigger == "" || body == "" {
			break
		}
		sub := Trace{}
		actions := p.parse(body, false, &sub)
		tr.Segments = append(tr.Segments, sub.Segments...)
		tr.Macros = append(tr.Macros, sub.Macros...)
		return domain.CreateMacro{Trigger: trigger, Actions: actions}
	}

	tr.Segments = append(tr.Segments, text)
	return domain.Unknown{RawText: text}
}
