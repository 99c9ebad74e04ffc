package normalize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxTranscript is the largest transcript accepted from an outer surface.
const DefaultMaxTranscript = 4096

var (
	ErrTranscriptTooLarge = errors.New("transcript exceeds maximum allowed size")
	ErrInvalidUTF8        = errors.New("transcript contains invalid UTF-8 sequences")
)

// Sanitize validates a transcript received over the network or a terminal.
// It rejects oversized or invalid UTF-8 input and drops control characters
// other than newline, tab and carriage return. A limit <= 0 uses
// DefaultMaxTranscript.
func Sanitize(raw string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxTranscript
	}
	// Oversized input is rejected, never truncated.
	if len(raw) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTranscriptTooLarge, len(raw), limit)
	}
	if !utf8.ValidString(raw) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(raw, isUnsafeControl) < 0 {
		return raw, nil
	}
	return strings.Map(func(r rune) rune {
		if isUnsafeControl(r) {
			return -1
		}
		return r
	}, raw), nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
