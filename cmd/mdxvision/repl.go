package main

import (
	"github.com/spf13/cobra"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/observability"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read transcripts from stdin and execute them",
	Long: `Starts an interactive session. Each input line is one finalized transcript.
Piped input runs headless with plain output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		headless, _ := cmd.Flags().GetBool("headless")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		eng, cleanup, err := openConfiguredEngine(ctx, cfg, logger, observability.LoggingHooks(logger))
		if err != nil {
			return err
		}
		defer cleanup()

		wrap, err := cli.ExecBindings(cfg.Executor, cmd.OutOrStdout(), logger)
		if err != nil {
			return err
		}

		return cli.RunRepl(ctx, eng, cli.ReplOptions{
			Input:        cmd.InOrStdin(),
			Output:       cmd.OutOrStdout(),
			Language:     lang,
			Headless:     headless,
			WrapBindings: wrap,
		})
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringP("lang", "l", "", "Language of the transcripts (defaults to the configured language)")
	replCmd.Flags().Bool("headless", false, "Plain output without banner, prompt or colors")
}
