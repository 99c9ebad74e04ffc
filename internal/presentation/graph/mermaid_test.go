package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/presentation/graph"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		intents  []domain.Intent
		contains []string
	}{
		{
			name:    "Chain In Order",
			intents: []domain.Intent{domain.LoadPatient{Identifier: "7"}, domain.ShowSection{Section: domain.SectionLabs}},
			contains: []string{
				`s0[["LoadPatient('7')"]]`,
				`s1["ShowSection(labs)"]`,
				"utterance --> s0",
				"s0 --> s1",
			},
		},
		{
			name:     "Capture Shape",
			intents:  []domain.Intent{domain.StartCapture{}},
			contains: []string{`s0[/"StartCapture"/]`},
		},
		{
			name:     "Unknown Shape",
			intents:  []domain.Intent{domain.Unknown{RawText: "hmm"}},
			contains: []string{`s0{{"Unknown('hmm')"}}`},
		},
		{
			name: "Macro Subgraph",
			intents: []domain.Intent{domain.CreateMacro{Trigger: "rounds", Actions: []domain.Intent{
				domain.ShowWorklist{}, domain.CheckIn{Index: 1},
			}}},
			contains: []string{
				`subgraph s0["macro: rounds"]`,
				`s0_0["ShowWorklist"]`,
				`s0_1["CheckIn(1)"]`,
				"s0_0 --> s0_1",
				"end",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(`say "hi"`, tt.intents, nil)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			assert.Contains(t, got, `utterance(("say 'hi'"))`)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	intents := []domain.Intent{domain.ShowWorklist{}, domain.GenerateNote{}, domain.ShowHelp{}}
	got := graph.GenerateMermaid("x", intents, &graph.Overlay{Status: []domain.StepStatus{
		domain.StepSucceeded, domain.StepFailed, domain.StepSkipped, domain.StepSucceeded,
	}})

	assert.Contains(t, got, "class s0 succeeded;")
	assert.Contains(t, got, "class s1 failed;")
	assert.Contains(t, got, "class s2 skipped;")
	assert.NotContains(t, got, "class s3", "statuses past the last intent are ignored")
}
