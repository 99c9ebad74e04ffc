package parser

import (
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/textutil"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

type stubMacros map[string][]domain.Intent

func (s stubMacros) Match(text string) (domain.MacroMatch, bool) {
	triggers := make([]string, 0, len(s))
	for k := range s {
		triggers = append(triggers, k)
	}
	sort.Slice(triggers, func(i, j int) bool { return len(triggers[i]) > len(triggers[j]) })
	for _, tr := range triggers {
		if i := textutil.IndexPhrase(text, tr); i >= 0 {
			return domain.MacroMatch{Trigger: tr, Start: i, End: i + len(tr), Actions: s[tr]}, true
		}
	}
	return domain.MacroMatch{}, false
}

func assertIntents(t *testing.T, want, got []domain.Intent) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("intents mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SectionSynonyms(t *testing.T) {
	p := New()
	for syn, want := range sectionSynonyms {
		for _, form := range []string{syn, "show " + syn, "display " + syn} {
			assertIntents(t, []domain.Intent{domain.ShowSection{Section: want}}, p.Parse(form))
		}
	}
}

func TestParse_SectionPhrasing(t *testing.T) {
	p := New()
	assertIntents(t, []domain.Intent{domain.ShowSection{Section: domain.SectionVitals}}, p.Parse("show me the patient's vitals"))
	assertIntents(t, []domain.Intent{domain.ShowSection{Section: domain.SectionCarePlans}}, p.Parse("pull up the current care plan"))
	// The longest synonym wins over the shorter one it contains.
	assertIntents(t, []domain.Intent{domain.ShowSection{Section: domain.SectionLabs}}, p.Parse("show latest lab results"))
}

func TestParse_PreservesOrder(t *testing.T) {
	got := New().Parse("show vitals and then show labs and then show allergies")
	assertIntents(t, []domain.Intent{
		domain.ShowSection{Section: domain.SectionVitals},
		domain.ShowSection{Section: domain.SectionLabs},
		domain.ShowSection{Section: domain.SectionAllergies},
	}, got)
}

func TestParse_Rules(t *testing.T) {
	p := New()

	tests := []struct {
		text string
		want domain.Intent
	}{
		{"help", domain.ShowHelp{}},
		{"what can i say", domain.ShowHelp{}},
		{"show worklist", domain.ShowWorklist{}},
		{"show my patients", domain.ShowWorklist{}},
		{"start recording", domain.StartCapture{}},
		{"stop recording", domain.StopCapture{}},
		{"start note", domain.StartCapture{}},
		{"stop note", domain.StopCapture{}},
		{"generate note", domain.GenerateNote{}},
		{"create a soap note", domain.GenerateNote{}},
		{"check in patient 2", domain.CheckIn{Index: 2}},
		{"check in the third patient", domain.CheckIn{Index: 3}},
		{"check in patient number five", domain.CheckIn{Index: 5}},
		{"check-in 4th", domain.CheckIn{Index: 4}},
		{"load patient 3", domain.LoadPatient{Identifier: "3"}},
		{"load patient one two seven", domain.LoadPatient{Identifier: "127"}},
		{"load patient twenty one", domain.LoadPatient{Identifier: "21"}},
		{"load patient john smith", domain.LoadPatient{Identifier: "john smith"}},
		{"load patient mrn 12724066", domain.LoadPatient{Identifier: "12724066"}},
		{"open patient 12 72 40 66", domain.LoadPatient{Identifier: "12724066"}},
		{"patient 5", domain.LoadPatient{Identifier: "5"}},
		{"show patient vitals", domain.ShowSection{Section: domain.SectionVitals}},
		{"open patient allergies", domain.ShowSection{Section: domain.SectionAllergies}},
		{"pull up patient labs", domain.ShowSection{Section: domain.SectionLabs}},
		{"patient allergies", domain.ShowSection{Section: domain.SectionAllergies}},
		{"show patient current medications", domain.ShowSection{Section: domain.SectionMedications}},
		{"display patient medications", domain.ShowSection{Section: domain.SectionMedications}},
		{"show patient list", domain.ShowWorklist{}},
		{"order cbc", domain.Order{Type: domain.OrderLab, Details: "cbc"}},
		{"order chest x-ray", domain.Order{Type: domain.OrderImaging, Details: "chest x-ray"}},
		{"order a ct of the head with labs", domain.Order{Type: domain.OrderImaging, Details: "ct of the head with labs"}},
		{"order amoxicillin 500 mg", domain.Order{Type: domain.OrderMedication, Details: "amoxicillin 500 mg"}},
		{"prescribe ibuprofen", domain.Order{Type: domain.OrderMedication, Details: "ibuprofen"}},
		{"order physical therapy consult", domain.Order{Type: domain.OrderGeneral, Details: "physical therapy consult"}},
		{"switch to epic", domain.SwitchTarget{Target: "epic"}},
		{"switch to sir ner", domain.SwitchTarget{Target: "cerner"}},
		{"switch to athena health", domain.SwitchTarget{Target: "athena"}},
		{"use the cerner ehr", domain.SwitchTarget{Target: "cerner"}},
		{"switch to cosmos", domain.SwitchTarget{Target: "cosmos"}},
		{"minerva", domain.ActivateAssistant{}},
		{"ask minerva what is the dose of heparin", domain.ActivateAssistant{Query: "what is the dose of heparin"}},
		{"blah blah", domain.Unknown{RawText: "blah blah"}},
		{"order", domain.Unknown{RawText: "order"}},
		{"load patient", domain.Unknown{RawText: "load patient"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assertIntents(t, []domain.Intent{tt.want}, p.Parse(tt.text))
		})
	}
}

func TestParse_AssistantQueryKeepsConjunctions(t *testing.T) {
	got := New().Parse("load patient 3 then ask minerva about drug interactions and then allergies")
	assertIntents(t, []domain.Intent{
		domain.LoadPatient{Identifier: "3"},
		domain.ActivateAssistant{Query: "about drug interactions and then allergies"},
	}, got)
}

func TestParse_OrderDetailsSpanAnd(t *testing.T) {
	got := New().Parse("order cbc and bmp then show vitals")
	assertIntents(t, []domain.Intent{
		domain.Order{Type: domain.OrderLab, Details: "cbc and bmp"},
		domain.ShowSection{Section: domain.SectionVitals},
	}, got)
}

func TestParse_EmptyInput(t *testing.T) {
	p := New()
	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("   "))
	assert.Empty(t, p.Parse("and then"))
}

func TestParse_IsCaseInsensitive(t *testing.T) {
	assertIntents(t, []domain.Intent{domain.ShowSection{Section: domain.SectionVitals}}, New().Parse("  Show   VITALS "))
}

func TestParse_MacroExpansion(t *testing.T) {
	rounds := []domain.Intent{domain.ShowWorklist{}, domain.LoadPatient{Identifier: "1"}}
	p := New(WithMacros(stubMacros{
		"morning rounds": rounds,
		"rounds":         {domain.ShowHelp{}},
	}))

	t.Run("Whole Utterance", func(t *testing.T) {
		assertIntents(t, rounds, p.Parse("morning rounds"))
	})

	t.Run("Spliced In Place", func(t *testing.T) {
		got := p.Parse("show labs then morning rounds and show vitals")
		assertIntents(t, []domain.Intent{
			domain.ShowSection{Section: domain.SectionLabs},
			domain.ShowWorklist{},
			domain.LoadPatient{Identifier: "1"},
			domain.ShowSection{Section: domain.SectionVitals},
		}, got)
	})

	t.Run("Shorter Trigger Elsewhere", func(t *testing.T) {
		assertIntents(t, []domain.Intent{domain.ShowHelp{}}, p.Parse("rounds"))
	})

	t.Run("Not Inside Assistant Query", func(t *testing.T) {
		assertIntents(t, []domain.Intent{domain.ActivateAssistant{Query: "about morning rounds"}}, p.Parse("ask minerva about morning rounds"))
	})

	t.Run("Returned Actions Are Copies", func(t *testing.T) {
		got := p.Parse("morning rounds")
		got[0] = domain.GenerateNote{}
		assert.Equal(t, domain.ShowWorklist{}, rounds[0])
	})

	tr := p.Trace("show labs then morning rounds")
	assert.Equal(t, []string{"morning rounds"}, tr.Macros)
	assert.Equal(t, []string{"show labs"}, tr.Segments)
}

func TestParse_MacroDefinition(t *testing.T) {
	p := New()

	tests := []struct {
		text string
		want domain.Intent
	}{
		{
			"create macro morning rounds as show worklist then load patient 1",
			domain.CreateMacro{Trigger: "morning rounds", Actions: []domain.Intent{
				domain.ShowWorklist{}, domain.LoadPatient{Identifier: "1"},
			}},
		},
		{
			"define macro discharge: show meds and show allergies",
			domain.CreateMacro{Trigger: "discharge", Actions: []domain.Intent{
				domain.ShowSection{Section: domain.SectionMedications},
				domain.ShowSection{Section: domain.SectionAllergies},
			}},
		},
		{
			"save macro go to rounds as show worklist",
			domain.CreateMacro{Trigger: "go to rounds", Actions: []domain.Intent{domain.ShowWorklist{}}},
		},
		{
			"create macro morning rounds",
			domain.Unknown{RawText: "create macro morning rounds"},
		},
		{
			"create macro as show labs",
			domain.Unknown{RawText: "create macro as show labs"},
		},
		{
			"create macro a as create macro b as show labs",
			domain.CreateMacro{Trigger: "a", Actions: []domain.Intent{
				domain.Unknown{RawText: "create macro b as show labs"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assertIntents(t, []domain.Intent{tt.want}, p.Parse(tt.text))
		})
	}
}

func TestParseCommand(t *testing.T) {
	cmd := New().ParseCommand("Hey MDX, load patient 12724066 then show vitals", "load patient 12724066 then show vitals", "en")

	assertIntents(t, []domain.Intent{
		domain.LoadPatient{Identifier: "12724066"},
		domain.ShowSection{Section: domain.SectionVitals},
	}, cmd.Intents)
	assert.Equal(t, "load patient 12724066 then show vitals", cmd.NormalizedText)
	assert.Equal(t, "en", cmd.Language)
}

func TestRuleNames_Priority(t *testing.T) {
	assert.Equal(t, []string{
		"assistant", "help", "worklist", "start_capture", "stop_capture", "generate_note",
		"check_in", "load_patient", "order", "show_section", "switch_target",
	}, RuleNames())
}

func TestKeywords(t *testing.T) {
	kw := Keywords()
	assert.Contains(t, kw, "vitals")
	assert.Contains(t, kw, "minerva")
	assert.Contains(t, kw, "then")
	for i := 1; i < len(kw); i++ {
		assert.GreaterOrEqual(t, len(kw[i-1]), len(kw[i]), strings.Join(kw[i-1:i+1], " / "))
	}
}
