package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <utterance>",
	Short: "Show how an utterance is normalized",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			lang = "en"
		}
		text, err := normalize.Sanitize(strings.Join(args, " "), 0)
		if err != nil {
			return err
		}

		eng, cleanup, err := openEngine(cmd.Context(), cmd, domain.LifecycleHooks{})
		if err != nil {
			return err
		}
		defer cleanup()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(eng.Normalizer().Analyze(text, lang))
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringP("lang", "l", "en", "Language of the utterance")
}
