package graph

import (
	"fmt"
	"strings"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

// Overlay marks executed steps, indexed like the intents.
type Overlay struct {
	Status []domain.StepStatus
}

// GenerateMermaid produces a Mermaid flowchart of an intent chain.
// Shapes follow the intent family:
// - Utterance: ((Circle))
// - Patient context (LoadPatient, SwitchTarget): [[Subroutine]]
// - Capture and assistant: [/Parallelogram/]
// - CreateMacro: a subgraph with the macro body
// - Default: [Rectangle]
// Step statuses from the overlay are applied as classes.
func GenerateMermaid(utterance string, intents []domain.Intent, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	fmt.Fprintf(&sb, "    utterance((\"%s\"))\n", label(utterance))

	prev := "utterance"
	for i, it := range intents {
		id := fmt.Sprintf("s%d", i)
		writeNode(&sb, id, it, "    ")
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		prev = id
	}

	if overlay != nil && len(overlay.Status) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef succeeded fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef cancelled fill:#fff8e1,stroke:#f9a825,stroke-dasharray:4,color:#000;\n")
		for i, st := range overlay.Status {
			if i >= len(intents) || st == "" {
				continue
			}
			fmt.Fprintf(&sb, "    class s%d %s;\n", i, st)
		}
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, id string, it domain.Intent, indent string) {
	if cm, ok := it.(domain.CreateMacro); ok {
		fmt.Fprintf(sb, "%ssubgraph %s[\"macro: %s\"]\n", indent, id, label(cm.Trigger))
		prev := ""
		for j, body := range cm.Actions {
			bid := fmt.Sprintf("%s_%d", id, j)
			writeNode(sb, bid, body, indent+"    ")
			if prev != "" {
				fmt.Fprintf(sb, "%s    %s --> %s\n", indent, prev, bid)
			}
			prev = bid
		}
		fmt.Fprintf(sb, "%send\n", indent)
		return
	}

	opener, closer := "[", "]"
	switch it.(type) {
	case domain.LoadPatient, domain.SwitchTarget:
		opener, closer = "[[", "]]"
	case domain.StartCapture, domain.StopCapture, domain.ActivateAssistant:
		opener, closer = "[/", "/]"
	case domain.Unknown:
		opener, closer = "{{", "}}"
	}
	fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, id, opener, label(it.String()), closer)
}

// label escapes double quotes for Mermaid labels.
func label(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
