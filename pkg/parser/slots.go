package parser

import (
	"strconv"
	"strings"
)

var units = map[string]int{
	"zero": 0, "oh": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9,
}

var teens = map[string]int{
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6, "seventh": 7,
	"eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11, "twelfth": 12,
}

// slotFillers are dropped from identifier and index slots.
var slotFillers = map[string]bool{
	"number": true, "no": true, "#": true, "mrn": true, "the": true, "patient": true, "id": true,
	"with": true, "for": true, "a": true, "is": true,
}

// trimFillers drops filler words from both ends of tokens.
func trimFillers(tokens []string, set map[string]bool) []string {
	for len(tokens) > 0 && set[tokens[0]] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && set[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// parseCardinal reads "7", "twelve", "twenty one" or "forty-two".
func parseCardinal(tokens []string) (int, bool) {
	if len(tokens) == 1 {
		if n, err := strconv.Atoi(strings.TrimPrefix(tokens[0], "#")); err == nil && n >= 0 {
			return n, true
		}
		if parts := strings.Split(tokens[0], "-"); len(parts) == 2 {
			tokens = parts
		}
	}
	switch len(tokens) {
	case 1:
		if n, ok := units[tokens[0]]; ok && tokens[0] != "oh" {
			return n, true
		}
		if n, ok := teens[tokens[0]]; ok {
			return n, true
		}
		if n, ok := tens[tokens[0]]; ok {
			return n, true
		}
	case 2:
		t, ok1 := tens[tokens[0]]
		u, ok2 := units[tokens[1]]
		if ok1 && ok2 && u > 0 && tokens[1] != "oh" {
			return t + u, true
		}
	}
	return 0, false
}

// parseOrdinal reads "third" or "3rd".
func parseOrdinal(tokens []string) (int, bool) {
	if len(tokens) != 1 {
		return 0, false
	}
	tok := tokens[0]
	if n, ok := ordinals[tok]; ok {
		return n, true
	}
	for _, suf := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(tok, suf) {
			if n, err := strconv.Atoi(strings.TrimSuffix(tok, suf)); err == nil && n > 0 {
				return n, true
			}
		}
	}
	return 0, false
}

// parseDigitSequence reads MRNs spoken digit by digit: "one two seven" or
// "12 72 40 66" both yield the concatenated digits.
func parseDigitSequence(tokens []string) (string, bool) {
	if len(tokens) < 2 {
		return "", false
	}
	var b strings.Builder
	for _, tok := range tokens {
		if n, ok := units[tok]; ok {
			b.WriteString(strconv.Itoa(n))
			continue
		}
		if isDigits(tok) {
			b.WriteString(tok)
			continue
		}
		return "", false
	}
	return b.String(), true
}

// parseIndex extracts a 1-based worklist index.
func parseIndex(tokens []string) (int, bool) {
	tokens = trimFillers(tokens, slotFillers)
	if n, ok := parseOrdinal(tokens); ok {
		return n, true
	}
	if n, ok := parseCardinal(tokens); ok && n > 0 {
		return n, true
	}
	return 0, false
}

// parseIdentifier extracts a patient identifier: a number, an MRN or a name.
func parseIdentifier(tokens []string) (string, bool) {
	tokens = trimFillers(tokens, slotFillers)
	if len(tokens) == 0 {
		return "", false
	}
	if len(tokens) == 1 && isDigits(strings.TrimPrefix(tokens[0], "#")) {
		return strings.TrimPrefix(tokens[0], "#"), true
	}
	if s, ok := parseDigitSequence(tokens); ok {
		return s, true
	}
	if n, ok := parseCardinal(tokens); ok {
		return strconv.Itoa(n), true
	}
	if n, ok := parseOrdinal(tokens); ok {
		return strconv.Itoa(n), true
	}
	return strings.Join(tokens, " "), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
