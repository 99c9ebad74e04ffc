package parser

import (
	"sort"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// sectionSynonyms maps every accepted spoken form to its canonical section.
var sectionSynonyms = map[string]domain.Section{
	"vitals":           domain.SectionVitals,
	"vital":            domain.SectionVitals,
	"vital signs":      domain.SectionVitals,
	"vital sign":       domain.SectionVitals,
	"vitals signs":     domain.SectionVitals,
	"blood pressure":   domain.SectionVitals,
	"heart rate":       domain.SectionVitals,
	"pulse":            domain.SectionVitals,
	"temperature":      domain.SectionVitals,
	"observations":     domain.SectionVitals,
	"allergies":        domain.SectionAllergies,
	"allergy":          domain.SectionAllergies,
	"allergy list":     domain.SectionAllergies,
	"allergic":         domain.SectionAllergies,
	"medications":      domain.SectionMedications,
	"medication":       domain.SectionMedications,
	"medication list":  domain.SectionMedications,
	"meds":             domain.SectionMedications,
	"med list":         domain.SectionMedications,
	"medicines":        domain.SectionMedications,
	"prescriptions":    domain.SectionMedications,
	"labs":             domain.SectionLabs,
	"lab":              domain.SectionLabs,
	"lab results":      domain.SectionLabs,
	"laboratory":       domain.SectionLabs,
	"results":          domain.SectionLabs,
	"test results":     domain.SectionLabs,
	"blood work":       domain.SectionLabs,
	"bloodwork":        domain.SectionLabs,
	"procedures":       domain.SectionProcedures,
	"procedure":        domain.SectionProcedures,
	"surgeries":        domain.SectionProcedures,
	"surgical history": domain.SectionProcedures,
	"conditions":       domain.SectionConditions,
	"condition":        domain.SectionConditions,
	"problems":         domain.SectionConditions,
	"problem list":     domain.SectionConditions,
	"diagnoses":        domain.SectionConditions,
	"diagnosis":        domain.SectionConditions,
	"medical history":  domain.SectionConditions,
	"care plans":       domain.SectionCarePlans,
	"care plan":        domain.SectionCarePlans,
	"care-plans":       domain.SectionCarePlans,
	"care-plan":        domain.SectionCarePlans,
	"careplan":         domain.SectionCarePlans,
	"careplans":        domain.SectionCarePlans,
	"plan of care":     domain.SectionCarePlans,
	"treatment plan":   domain.SectionCarePlans,
	"notes":            domain.SectionNotes,
	"note":             domain.SectionNotes,
	"clinical notes":   domain.SectionNotes,
	"documents":        domain.SectionNotes,
	"progress notes":   domain.SectionNotes,
}

// synonymsByLength is sectionSynonyms ordered longest first, then lexically,
// so the most specific synonym wins.
var synonymsByLength = sortedByLength(keys(sectionSynonyms))

// displayVerbs introduce a section request. Multi-word verbs come first.
var displayVerbs = []string{
	"pull up", "bring up", "go to", "show", "display", "open", "view", "see", "check", "read",
}

// fillers are dropped between a verb and its object.
var fillers = map[string]bool{
	"me": true, "the": true, "my": true, "a": true, "an": true, "all": true, "their": true,
	"his": true, "her": true, "patient": true, "patient's": true, "patients": true, "current": true,
}

var assistantNames = []string{
	"hey minerva", "okay minerva", "ok minerva", "ask minerva", "ask the assistant", "ask assistant",
	"minerva", "assistant",
}

var helpPhrases = map[string]bool{
	"help": true, "help me": true, "show help": true, "commands": true, "show commands": true,
	"list commands": true, "what can i say": true, "what can you do": true,
}

var worklistObjects = map[string]bool{
	"worklist": true, "patient list": true, "patients": true, "schedule": true, "today's patients": true,
	"list": true, "clinic list": true,
}

var startCapturePhrases = []string{
	"start recording", "begin recording", "start capture", "start capturing", "start scribe",
	"start scribing", "start listening", "start documentation", "start ambient", "record visit",
	"start note", "start notes",
}

var stopCapturePhrases = []string{
	"stop recording", "end recording", "finish recording", "stop capture", "stop capturing",
	"stop scribe", "stop scribing", "stop listening", "stop documentation", "stop ambient",
	"stop note", "stop notes", "end note",
}

var noteVerbs = map[string]bool{"generate": true, "create": true, "write": true, "draft": true, "make": true}

var checkInPrefixes = []string{"check in", "check-in", "checkin", "arrive", "mark arrived"}

var loadPrefixes = []string{
	"load patient", "open patient", "pull up patient", "select patient", "find patient",
	"show patient", "switch to patient", "go to patient", "load chart for", "open chart for", "load", "patient",
}

var orderVerbs = []string{"place an order for", "place order for", "place order", "prescribe", "order", "request"}

// orderKeywords classify an order. imaging beats lab, lab beats medication.
var orderKeywords = []struct {
	typ   domain.OrderType
	words []string
}{
	{domain.OrderImaging, []string{
		"x-ray", "xray", "x ray", "ct", "cat scan", "mri", "ultrasound", "imaging", "scan",
		"radiograph", "echo", "echocardiogram", "mammogram", "pet",
	}},
	{domain.OrderLab, []string{
		"lab", "labs", "cbc", "bmp", "cmp", "panel", "blood work", "bloodwork", "culture", "a1c",
		"troponin", "lipid", "urinalysis", "test", "level", "levels",
	}},
	{domain.OrderMedication, []string{
		"mg", "mcg", "ml", "units", "medication", "dose", "tablet", "tablets", "capsule",
		"prescription", "refill", "daily", "twice", "bid", "tid", "prn",
	}},
}

var switchPrefixes = []string{
	"switch ehr to", "switch system to", "change ehr to", "switch to", "connect to", "change to", "use",
}

// ehrSystems canonicalizes spoken EHR vendor names.
var ehrSystems = map[string]string{
	"epic":             "epic",
	"cerner":           "cerner",
	"oracle cerner":    "cerner",
	"oracle health":    "cerner",
	"athena":           "athena",
	"athenahealth":     "athena",
	"athena health":    "athena",
	"allscripts":       "allscripts",
	"meditech":         "meditech",
	"eclinicalworks":   "eclinicalworks",
	"e clinical works": "eclinicalworks",
	"ecw":              "eclinicalworks",
	"nextgen":          "nextgen",
	"next gen":         "nextgen",
	"veradigm":         "veradigm",
}

// conjunctions split an utterance into segments; "and then" is tried before "and".
var conjunctions = []string{"and then", "then", "and"}

// Keywords returns the words and phrases the parser gives a fixed meaning.
// Macro triggers must not collide with them.
func Keywords() []string {
	set := map[string]bool{}
	for s := range sectionSynonyms {
		set[s] = true
	}
	for s := range helpPhrases {
		set[s] = true
	}
	for s := range worklistObjects {
		set[s] = true
	}
	for _, list := range [][]string{assistantNames, startCapturePhrases, stopCapturePhrases, conjunctions} {
		for _, s := range list {
			set[s] = true
		}
	}
	for _, s := range []string{"generate note", "load patient", "check in", "order", "prescribe", "show", "display"} {
		set[s] = true
	}
	return sortedByLength(keys(set))
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedByLength(in []string) []string {
	sort.Slice(in, func(i, j int) bool {
		if len(in[i]) != len(in[j]) {
			return len(in[i]) > len(in[j])
		}
		return in[i] < in[j]
	})
	return in
}
