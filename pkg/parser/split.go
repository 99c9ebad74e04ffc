package parser

import "strings"

// segment is one conjunction-delimited piece of an utterance.
type segment struct {
	text string
	// rest runs from the start of the segment to the end of the utterance.
	rest string
	// joiner is the conjunction that preceded the segment, if any.
	joiner string
}

// split cuts text on the conjunctions "and then", "then" and "and",
// leftmost first. Empty segments are dropped.
func split(text string) []segment {
	words := strings.Fields(text)
	var segs []segment
	start, joiner := 0, ""
	for i := 0; i < len(words); {
		n := 0
		switch {
		case words[i] == "and" && i+1 < len(words) && words[i+1] == "then":
			n = 2
		case words[i] == "then" || words[i] == "and":
			n = 1
		}
		if n == 0 {
			i++
			continue
		}
		if i > start {
			segs = append(segs, segment{
				text:   strings.Join(words[start:i], " "),
				rest:   strings.Join(words[start:], " "),
				joiner: joiner,
			})
		}
		joiner = strings.Join(words[i:i+n], " ")
		i += n
		start = i
	}
	if start < len(words) {
		segs = append(segs, segment{
			text:   strings.Join(words[start:], " "),
			rest:   strings.Join(words[start:], " "),
			joiner: joiner,
		})
	}
	return segs
}
