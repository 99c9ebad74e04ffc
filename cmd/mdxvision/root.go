package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	mdxvision "github.com/mdxvision/mdx-vision-enterprise-sub003"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/config"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
)

var rootCmd = &cobra.Command{
	Use:   "mdxvision",
	Short: "MDX Vision turns clinician speech and head gestures into EHR commands",
	Long: `MDX Vision interprets finalized voice transcripts from smart glasses into
ordered clinical intents, keeps per-user voice macros and drives the
heads-up display from head gestures.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("user", "", "User whose macros are loaded (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().String("store", "", "Macro store backend: memory, file or redis (overrides config)")
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.User = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.Store.Backend = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	logger, err := cli.CreateLogger(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// openEngine builds a single engine over the configured store. The returned
// cleanup closes both.
func openEngine(ctx context.Context, cmd *cobra.Command, hooks domain.LifecycleHooks) (*mdxvision.Engine, func(), error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return openConfiguredEngine(ctx, cfg, logger, hooks)
}

func openConfiguredEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*mdxvision.Engine, func(), error) {
	backend, err := cli.OpenBackend(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, err
	}
	eng, err := cli.NewEngine(ctx, cfg, backend.Store, logger, hooks)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}
	cleanup := func() {
		eng.Close()
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close macro store", "error", err)
		}
	}
	return eng, cleanup, nil
}
