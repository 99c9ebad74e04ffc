package cli

import (
	"context"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/presentation/tui"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
)

// ReplOptions configures an interactive session.
type ReplOptions struct {
	Input    io.Reader
	Output   io.Writer
	Language string
	// Headless forces plain output. It is implied when Input is not a terminal.
	Headless bool
	// WrapBindings decorates the printing bindings (e.g. with external commands).
	WrapBindings func(executor.Bindings) executor.Bindings
}

// RunRepl reads transcripts until EOF, exit or an interrupt.
func RunRepl(ctx context.Context, eng *mdxvision.Engine, opts ReplOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	headless := opts.Headless || !isTerminal(opts.Input)

	r := &mdxvision.Runner{
		Input:    NewInterruptibleReader(opts.Input, ctx.Done()),
		Output:   opts.Output,
		Headless: headless,
		Language: opts.Language,
	}
	if !headless {
		tui.PrintBanner(opts.Output, mdxvision.Version)
		r.Renderer = tui.NewRenderer()
		r.Highlight = tui.Highlighter(termenv.EnvColorProfile())
	}
	if opts.WrapBindings != nil {
		b := opts.WrapBindings(r.PrintBindings())
		r.Bindings = &b
	}

	err := r.Run(ctx, eng)
	if ctx.Err() != nil && !headless {
		PrintSystemMessage(opts.Output, "Interrupted.")
	}
	return HandleExecutionError(err)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
