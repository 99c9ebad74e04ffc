package main

import (
	"github.com/spf13/cobra"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/bridge"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/observability"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Drive the engine from a host process over JSON lines",
	Long: `Reads JSON-lines messages from stdin and writes events to stdout.
The host performs each intent event and answers with a result message.
Plain text lines are treated as transcripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		b := bridge.New(
			cli.NewInterruptibleReader(cmd.InOrStdin(), ctx.Done()),
			cmd.OutOrStdout(),
			bridge.WithLogger(logger),
			bridge.WithMaxTranscript(cfg.Server.MaxTranscript),
		)
		hooks := observability.Combine(observability.LoggingHooks(logger), b.Hooks())
		eng, cleanup, err := openConfiguredEngine(ctx, cfg, logger, hooks)
		if err != nil {
			return err
		}
		defer cleanup()

		return cli.HandleExecutionError(b.Serve(ctx, eng))
	},
}

func init() {
	rootCmd.AddCommand(bridgeCmd)
}
