package main

import (
	"fmt"
	"strings"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mdxvision",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mdxvision version %s\n", strings.TrimSpace(mdxvision.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
