package parser

import (
	"strings"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/textutil"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// rule classifies one segment. Rules are tried in slice order and the first
// match wins, so more specific rules must come first.
type rule struct {
	name string
	// greedy rules consume the rest of the utterance, conjunctions included.
	greedy bool
	match  func(p *Parser, seg segment) (domain.Intent, bool)
}

var rules = []rule{
	{name: "assistant", greedy: true, match: matchAssistant},
	{name: "help", match: matchHelp},
	{name: "worklist", match: matchWorklist},
	{name: "start_capture", match: matchPrefixes(startCapturePhrases, domain.StartCapture{})},
	{name: "stop_capture", match: matchPrefixes(stopCapturePhrases, domain.StopCapture{})},
	{name: "generate_note", match: matchGenerateNote},
	{name: "check_in", match: matchCheckIn},
	{name: "load_patient", match: matchLoadPatient},
	{name: "order", match: matchOrder},
	{name: "show_section", match: matchShowSection},
	{name: "switch_target", match: matchSwitchTarget},
}

// RuleNames lists the classification rules in priority order.
func RuleNames() []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

func matchAssistant(_ *Parser, seg segment) (domain.Intent, bool) {
	for _, name := range assistantNames {
		if textutil.HasPhrasePrefix(seg.rest, name) {
			query := strings.TrimSpace(strings.TrimLeft(seg.rest[len(name):], " :,"))
			return domain.ActivateAssistant{Query: query}, true
		}
	}
	return nil, false
}

func matchHelp(_ *Parser, seg segment) (domain.Intent, bool) {
	if helpPhrases[seg.text] {
		return domain.ShowHelp{}, true
	}
	return nil, false
}

func matchWorklist(_ *Parser, seg segment) (domain.Intent, bool) {
	obj := seg.text
	if _, rest, ok := cutPrefix(obj, displayVerbs); ok {
		obj = rest
	}
	obj = strings.Join(trimFillers(strings.Fields(obj), map[string]bool{"the": true, "my": true, "me": true}), " ")
	if worklistObjects[obj] {
		return domain.ShowWorklist{}, true
	}
	return nil, false
}

func matchPrefixes(phrases []string, out domain.Intent) func(*Parser, segment) (domain.Intent, bool) {
	return func(_ *Parser, seg segment) (domain.Intent, bool) {
		if _, _, ok := cutPrefix(seg.text, phrases); ok {
			return out, true
		}
		return nil, false
	}
}

func matchGenerateNote(_ *Parser, seg segment) (domain.Intent, bool) {
	words := strings.Fields(seg.text)
	if len(words) < 2 || !noteVerbs[words[0]] {
		return nil, false
	}
	for _, w := range words[1:] {
		if w == "note" || w == "notes" || w == "documentation" {
			return domain.GenerateNote{}, true
		}
	}
	return nil, false
}

func matchCheckIn(_ *Parser, seg segment) (domain.Intent, bool) {
	_, rest, ok := cutPrefix(seg.text, checkInPrefixes)
	if !ok {
		return nil, false
	}
	idx, ok := parseIndex(strings.Fields(rest))
	if !ok {
		return nil, false
	}
	return domain.CheckIn{Index: idx}, true
}

func matchLoadPatient(_ *Parser, seg segment) (domain.Intent, bool) {
	_, rest, ok := cutPrefix(seg.text, loadPrefixes)
	if !ok {
		return nil, false
	}
	id, ok := parseIdentifier(strings.Fields(rest))
	if !ok || namesChartObject(id) {
		return nil, false
	}
	return domain.LoadPatient{Identifier: id}, true
}

// namesChartObject reports whether a would-be patient identifier is really a
// chart section or the worklist, as in "show patient vitals".
func namesChartObject(id string) bool {
	obj := strings.Join(trimFillers(strings.Fields(id), fillers), " ")
	_, section := sectionSynonyms[obj]
	return section || worklistObjects[obj]
}

func matchOrder(_ *Parser, seg segment) (domain.Intent, bool) {
	verb, rest, ok := cutPrefix(seg.text, orderVerbs)
	if !ok {
		return nil, false
	}
	details := strings.Join(trimFillers(strings.Fields(rest), map[string]bool{"a": true, "an": true, "for": true, "the": true, "some": true}), " ")
	if details == "" {
		return nil, false
	}
	return domain.Order{Type: classifyOrder(verb, details), Details: details}, true
}

func classifyOrder(verb, details string) domain.OrderType {
	if verb == "prescribe" {
		return domain.OrderMedication
	}
	for _, group := range orderKeywords {
		for _, w := range group.words {
			if textutil.ContainsPhrase(details, w) {
				return group.typ
			}
		}
	}
	return domain.OrderGeneral
}

func matchShowSection(_ *Parser, seg segment) (domain.Intent, bool) {
	obj := seg.text
	_, rest, hasVerb := cutPrefix(obj, displayVerbs)
	if hasVerb {
		obj = rest
	}
	obj = strings.Join(trimFillers(strings.Fields(obj), fillers), " ")
	if obj == "" {
		return nil, false
	}
	if s, ok := sectionSynonyms[obj]; ok {
		return domain.ShowSection{Section: s}, true
	}
	if !hasVerb {
		return nil, false
	}
	for _, syn := range synonymsByLength {
		if textutil.ContainsPhrase(obj, syn) {
			return domain.ShowSection{Section: sectionSynonyms[syn]}, true
		}
	}
	return nil, false
}

func matchSwitchTarget(p *Parser, seg segment) (domain.Intent, bool) {
	_, rest, ok := cutPrefix(seg.text, switchPrefixes)
	if !ok {
		return nil, false
	}
	target := p.correct(rest)
	words := trimFillers(strings.Fields(target), map[string]bool{"the": true})
	for len(words) > 0 && (words[len(words)-1] == "ehr" || words[len(words)-1] == "system") {
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return nil, false
	}
	target = strings.Join(words, " ")
	if canon, ok := ehrSystems[target]; ok {
		target = canon
	}
	return domain.SwitchTarget{Target: target}, true
}

// cutPrefix finds the first phrase that starts text on a word boundary and
// returns it with the trimmed remainder.
func cutPrefix(text string, phrases []string) (string, string, bool) {
	for _, ph := range phrases {
		if textutil.HasPhrasePrefix(text, ph) {
			return ph, strings.TrimSpace(text[len(ph):]), true
		}
	}
	return "", "", false
}
