package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/presentation/graph"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/executor"
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <utterance>",
	Short: "Interpret an utterance without executing it",
	Long: `Normalizes the utterance, expands the user's macros and prints the ordered
intents. Formats: json (default), text or mermaid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		format, _ := cmd.Flags().GetString("format")

		ctx := cmd.Context()
		eng, cleanup, err := openEngine(ctx, cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		parsed := eng.Interpret(ctx, strings.Join(args, " "), lang)
		return printCommand(cmd.OutOrStdout(), format, parsed, nil)
	},
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <utterance>",
	Short: "Interpret and execute an utterance with printing bindings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		format, _ := cmd.Flags().GetString("format")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		eng, cleanup, err := openConfiguredEngine(ctx, cfg, logger, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		wrap, err := cli.ExecBindings(cfg.Executor, out, logger)
		if err != nil {
			return err
		}
		runner := &mdxvision.Runner{Output: out, Headless: true}
		parsed := eng.Interpret(ctx, strings.Join(args, " "), lang)
		if len(parsed.Intents) == 0 {
			fmt.Fprintln(out, "(ignored)")
			return nil
		}

		report, execErr := eng.Execute(ctx, parsed, wrap(runner.PrintBindings()))
		if format == "mermaid" {
			if err := printCommand(out, format, parsed, &report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "display: %s (%d/%d steps)\n", eng.Display().State(),
				report.Count(domain.StepSucceeded), len(report.Steps))
		}
		return execErr
	},
}

func printCommand(w io.Writer, format string, parsed domain.ParsedCommand, report *executor.Report) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(parsed)
	case "text":
		if len(parsed.Intents) == 0 {
			fmt.Fprintln(w, "(no intents)")
		}
		for i, it := range parsed.Intents {
			fmt.Fprintf(w, "%d. %s\n", i+1, it)
		}
		return nil
	case "mermaid":
		var overlay *graph.Overlay
		if report != nil {
			overlay = &graph.Overlay{Status: make([]domain.StepStatus, len(report.Steps))}
			for i, s := range report.Steps {
				overlay.Status[i] = s.Status
			}
		}
		fmt.Fprint(w, graph.GenerateMermaid(parsed.OriginalText, parsed.Intents, overlay))
		return nil
	default:
		return fmt.Errorf("unknown format %q (supported: json, text, mermaid)", format)
	}
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(runCmd)

	for _, c := range []*cobra.Command{parseCmd, runCmd} {
		c.Flags().StringP("lang", "l", "", "Language of the utterance (defaults to the configured language)")
	}
	parseCmd.Flags().StringP("format", "f", "json", "Output format: json, text or mermaid")
	runCmd.Flags().StringP("format", "f", "", "Set to mermaid to print the chain with step outcomes")
}
