// Package normalize turns a raw speech transcript into canonical English
// command text: wake phrase stripped, misheard words corrected, non-English
// phrases translated, diacritics removed and whitespace collapsed.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/textutil"
)

// Correction rewrites a commonly misheard fragment.
type Correction struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Translation maps a non-English phrase to its English command equivalent.
type Translation struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// LanguageTable holds the translations of one language.
// Phrases are replaced in place; an Alias replaces the whole utterance.
type LanguageTable struct {
	Phrases []Translation `json:"phrases" yaml:"phrases"`
	Aliases []Translation `json:"aliases" yaml:"aliases"`
}

// Result describes what the pipeline did to one utterance.
type Result struct {
	Text              string   `json:"text"`
	WakeDetected      bool     `json:"wake_detected"`
	Corrections       []string `json:"corrections,omitempty"`
	Translated        bool     `json:"translated"`
	TranslationSource string   `json:"translation_source,omitempty"`
}

// Normalizer is safe for concurrent use once constructed.
type Normalizer struct {
	wake        []string
	corrections []Correction
	languages   map[string]LanguageTable
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWakePhrases replaces the wake phrase table.
func WithWakePhrases(phrases ...string) Option {
	return func(n *Normalizer) {
		n.wake = n.wake[:0]
		for _, p := range phrases {
			if p = textutil.Collapse(strings.ToLower(p)); p != "" {
				n.wake = append(n.wake, p)
			}
		}
	}
}

// WithExtraWakePhrases appends to the wake phrase table.
func WithExtraWakePhrases(phrases ...string) Option {
	return func(n *Normalizer) {
		for _, p := range phrases {
			if p = textutil.Collapse(strings.ToLower(p)); p != "" {
				n.wake = append(n.wake, p)
			}
		}
	}
}

// WithCorrections replaces the mishearing correction table.
func WithCorrections(c []Correction) Option {
	return func(n *Normalizer) {
		n.corrections = append([]Correction(nil), c...)
	}
}

// WithLanguageTable installs or replaces the table of one language.
func WithLanguageTable(lang string, table LanguageTable) Option {
	return func(n *Normalizer) {
		n.languages[baseLanguage(lang)] = table
	}
}

// New returns a Normalizer loaded with the default tables.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		wake:        append([]string(nil), DefaultWakePhrases...),
		corrections: append([]Correction(nil), DefaultCorrections...),
		languages:   make(map[string]LanguageTable, len(DefaultLanguages)),
	}
	for lang, t := range DefaultLanguages {
		n.languages[lang] = t
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the canonical command text of raw. It never fails;
// empty or whitespace-only input yields "".
func (n *Normalizer) Normalize(raw, language string) string {
	return n.Analyze(raw, language).Text
}

// Analyze runs the pipeline and reports each stage.
func (n *Normalizer) Analyze(raw, language string) Result {
	var res Result

	text := clean(raw)
	if text == "" {
		return res
	}

	if rest, ok := n.stripWake(text); ok {
		res.WakeDetected = true
		text = rest
	}

	text, res.Corrections = n.correct(text)

	if lang := baseLanguage(language); lang != "" && lang != "en" {
		if table, ok := n.languages[lang]; ok {
			if out, src, ok := translate(text, table); ok {
				text = out
				res.Translated = true
				res.TranslationSource = src
			}
		}
	}

	res.Text = textutil.Collapse(textutil.Fold(text))
	return res
}

// Correct applies only the mishearing table. The parser uses it to clean
// free-text slots such as EHR system names.
func (n *Normalizer) Correct(text string) string {
	out, _ := n.correct(textutil.Collapse(strings.ToLower(text)))
	return out
}

// WakePhrases returns a copy of the wake phrase table.
func (n *Normalizer) WakePhrases() []string {
	return append([]string(nil), n.wake...)
}

// Languages returns the codes of the languages with a translation table.
func (n *Normalizer) Languages() []string {
	out := make([]string, 0, len(n.languages))
	for lang := range n.languages {
		out = append(out, lang)
	}
	return out
}

// stripWake keeps the text after the earliest wake phrase. At equal
// positions the longest phrase wins.
func (n *Normalizer) stripWake(text string) (string, bool) {
	best, bestLen := -1, 0
	for _, p := range n.wake {
		i := strings.Index(text, p)
		if i < 0 {
			continue
		}
		if best < 0 || i < best || (i == best && len(p) > bestLen) {
			best, bestLen = i, len(p)
		}
	}
	if best < 0 {
		return text, false
	}
	return strings.TrimSpace(text[best+bestLen:]), true
}

func (n *Normalizer) correct(text string) (string, []string) {
	var applied []string
	for _, c := range n.corrections {
		if c.From == "" || !strings.Contains(text, c.From) {
			continue
		}
		text = strings.ReplaceAll(text, c.From, c.To)
		applied = append(applied, c.From+"->"+c.To)
	}
	return text, applied
}

// translate tries phrases then aliases, each first with accents and then
// accent-insensitively. The first hit wins.
func translate(text string, t LanguageTable) (string, string, bool) {
	folded := textutil.Fold(text)

	for _, p := range t.Phrases {
		if i := textutil.IndexPhrase(text, p.Source); i >= 0 {
			return text[:i] + p.Target + text[i+len(p.Source):], p.Source, true
		}
	}
	for _, p := range t.Phrases {
		src := textutil.Fold(p.Source)
		if i := textutil.IndexPhrase(folded, src); i >= 0 {
			return folded[:i] + p.Target + folded[i+len(src):], p.Source, true
		}
	}
	for _, a := range t.Aliases {
		if textutil.ContainsPhrase(text, a.Source) {
			return a.Target, a.Source, true
		}
	}
	for _, a := range t.Aliases {
		if textutil.ContainsPhrase(folded, textutil.Fold(a.Source)) {
			return a.Target, a.Source, true
		}
	}
	return text, "", false
}

// ValidateCorrections reports the first pair of entries whose sources or
// targets overlap, which would make the result depend on table order.
func ValidateCorrections(table []Correction) error {
	for i, a := range table {
		if strings.TrimSpace(a.From) == "" {
			return fmt.Errorf("correction %d: empty source", i)
		}
		for j, b := range table {
			if i == j {
				continue
			}
			if strings.Contains(b.From, a.From) {
				return fmt.Errorf("correction %q overlaps source %q", a.From, b.From)
			}
			if strings.Contains(b.To, a.From) {
				return fmt.Errorf("correction %q overlaps target %q", a.From, b.To)
			}
		}
		if strings.Contains(a.To, a.From) {
			return fmt.Errorf("correction %q reappears in its own target", a.From)
		}
	}
	return nil
}

func baseLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	return lang
}

// clean lower-cases, drops sentence punctuation and collapses whitespace.
// A period between two digits is a decimal point and is kept.
func clean(raw string) string {
	s := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(s))
	rs := []rune(s)
	for i, r := range rs {
		switch r {
		case ',', '!', '?', ';', '¿', '¡', '"', '(', ')':
			b.WriteByte(' ')
		case '.':
			if i > 0 && i < len(rs)-1 && unicode.IsDigit(rs[i-1]) && unicode.IsDigit(rs[i+1]) {
				b.WriteRune(r)
			} else {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	return textutil.Collapse(b.String())
}
