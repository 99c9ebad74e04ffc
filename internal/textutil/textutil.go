// Package textutil holds the small, allocation-light string helpers shared by
// the normalizer, the parser and the macro registry.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics (é -> e, ñ -> n, ü -> u). Letters without a
// decomposition (ß, ø) are kept as they are.
func Fold(s string) string {
	if isASCII(s) {
		return s
	}
	// Transformers are stateful, so the chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Collapse trims s and replaces every run of whitespace with a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Canonical lower-cases, folds and collapses s.
func Canonical(s string) string {
	return Collapse(Fold(strings.ToLower(s)))
}

// IndexPhrase returns the byte offset of the first whole-word occurrence of
// phrase in text, or -1. A word boundary is any rune that is neither a letter,
// a digit nor an apostrophe, or the edge of the string.
func IndexPhrase(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

// ContainsPhrase reports whether phrase occurs in text as whole words.
func ContainsPhrase(text, phrase string) bool {
	return IndexPhrase(text, phrase) >= 0
}

// HasPhrasePrefix reports whether text starts with phrase followed by a word boundary.
func HasPhrasePrefix(text, phrase string) bool {
	return strings.HasPrefix(text, phrase) && boundaryAfter(text, len(phrase))
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
