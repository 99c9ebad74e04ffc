package mdxvision

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
)

// HelpText is the markdown shown for ShowHelp.
const HelpText = `# Voice commands

- **load patient 12724066** / **load the second patient**
- **show vitals** (also *allergies, meds, labs, procedures, conditions, care plans, notes*)
- **show worklist** / **check in patient 3**
- **order cbc** / **order chest x-ray** / **prescribe amoxicillin**
- **start note** / **stop note** / **generate note**
- **switch to epic** (also *cerner, athena*)
- **hey minerva** *question*
- **create macro morning rounds as show worklist then load patient 1**

Chain commands with *then* or *and*. Say *exit* to leave.`

// Runner drives an Engine from line-oriented input, one finalized transcript
// per line. This allows for easy testing and integration with different
// frontends (CLI, TTY, pipes).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Language string
	// Bindings overrides the printing bindings.
	Bindings *executor.Bindings
	Renderer ContentRenderer
	// Highlight decorates status lines (e.g. terminal colors).
	Highlight func(string) string
}

// ContentRenderer is a function that transforms markdown before outputting it.
type ContentRenderer func(string) (string, error)

// Run reads transcripts until EOF, "exit" or "quit", interpreting and
// executing each one.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	w := r.Output

	b := r.PrintBindings()
	if r.Bindings != nil {
		b = *r.Bindings
	}

	if !r.Headless {
		fmt.Fprintln(w, "--- MDX Vision (say \"help\" for commands) ---")
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !r.Headless {
			fmt.Fprint(w, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			if !r.Headless {
				fmt.Fprintln(w, "Bye!")
			}
			return nil
		}

		if input != "" {
			r.handle(ctx, engine, input, b)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *Runner) handle(ctx context.Context, engine *Engine, input string, b executor.Bindings) {
	cmd := engine.Interpret(ctx, input, r.Language)
	if len(cmd.Intents) == 0 {
		r.status("(ignored)")
		return
	}
	if !r.Headless {
		names := make([]string, len(cmd.Intents))
		for i, it := range cmd.Intents {
			names[i] = it.String()
		}
		r.status("» " + strings.Join(names, " → "))
	}

	report, err := engine.Execute(ctx, cmd, b)
	var stepErr *executor.StepError
	switch {
	case errors.As(err, &stepErr):
		r.status(fmt.Sprintf("step %d (%s) failed: %v", stepErr.Index+1, stepErr.Intent, stepErr.Err))
	case err != nil:
		r.status("error: " + err.Error())
	}
	if !r.Headless {
		r.status(fmt.Sprintf("display: %s (%d/%d steps)", engine.Display().State(),
			report.Count(domain.StepSucceeded), len(report.Steps)))
	}
}

func (r *Runner) status(line string) {
	if r.Highlight != nil {
		line = r.Highlight(line)
	}
	fmt.Fprintln(r.Output, line)
}

func (r *Runner) render(markdown string) string {
	if r.Renderer == nil {
		return markdown
	}
	out, err := r.Renderer(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSpace(out)
}

// PrintBindings returns bindings that describe each action on the Output.
// Unrecognized segments are reported without failing the command.
func (r *Runner) PrintBindings() executor.Bindings {
	say := func(format string, args ...any) error {
		_, err := fmt.Fprintf(r.Output, format+"\n", args...)
		return err
	}
	return executor.Bindings{
		LoadPatient: func(_ context.Context, i domain.LoadPatient) error {
			return say("loading patient %s", i.Identifier)
		},
		ShowSection: func(_ context.Context, i domain.ShowSection) error {
			return say("showing %s", i.Section)
		},
		SwitchTarget: func(_ context.Context, i domain.SwitchTarget) error {
			return say("switching EHR to %s", i.Target)
		},
		ActivateAssistant: func(_ context.Context, i domain.ActivateAssistant) error {
			if i.Query == "" {
				return say("assistant listening")
			}
			return say("asking assistant: %s", i.Query)
		},
		Order: func(_ context.Context, i domain.Order) error {
			return say("placing %s order: %s", i.Type, i.Details)
		},
		ShowWorklist: func(context.Context, domain.ShowWorklist) error {
			return say("showing worklist")
		},
		CheckIn: func(_ context.Context, i domain.CheckIn) error {
			return say("checking in patient #%d", i.Index)
		},
		StartCapture: func(context.Context, domain.StartCapture) error {
			return say("note capture started")
		},
		StopCapture: func(context.Context, domain.StopCapture) error {
			return say("note capture stopped")
		},
		GenerateNote: func(context.Context, domain.GenerateNote) error {
			return say("generating note")
		},
		ShowHelp: func(context.Context, domain.ShowHelp) error {
			return say("%s", r.render(HelpText))
		},
		Unknown: func(_ context.Context, i domain.Unknown) error {
			return say("didn't catch %q", i.RawText)
		},
	}
}
