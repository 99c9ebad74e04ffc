package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	httpAdapter "github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/http"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/observability"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for glasses devices",
	Long: `Starts one engine per device session behind a JSON API over HTTP.
Executed intents and display changes are pushed to the device over SSE.
Prometheus metrics are served on /metrics, or on --metrics-addr when set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			cfg.Server.Addr = v
		}
		if v, _ := cmd.Flags().GetString("metrics-addr"); v != "" {
			cfg.Server.MetricsAddr = v
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		backend, err := cli.OpenBackend(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		streams := httpAdapter.NewStreamManager()
		streams.SetLogger(logger)

		hooks := observability.Combine(observability.LoggingHooks(logger), metrics.Hooks(), streams.Hooks())

		mgrOpts := []session.Option{session.WithLogger(logger)}
		if backend.Locker != nil {
			mgrOpts = append(mgrOpts, session.WithLocker(backend.Locker))
		}
		sessions := session.NewManager(cli.SessionFactory(cfg, backend.Store, logger, hooks), mgrOpts...)
		defer sessions.Close()

		api := httpAdapter.NewHandler(sessions,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMaxTranscript(cfg.Server.MaxTranscript),
			httpAdapter.WithStreams(streams),
		)
		metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

		servers := []*http.Server{}
		if cfg.Server.MetricsAddr == "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metricsHandler)
			mux.Handle("/", api)
			servers = append(servers, &http.Server{Addr: cfg.Server.Addr, Handler: mux})
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metricsHandler)
			servers = append(servers,
				&http.Server{Addr: cfg.Server.Addr, Handler: api},
				&http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux},
			)
		}

		// Channel to listen for errors coming from the listeners.
		serverErrors := make(chan error, len(servers))
		for _, srv := range servers {
			go func(srv *http.Server) {
				logger.Info("Starting MDX Vision server", "address", srv.Addr, "store", cfg.Store.Backend, "user", cfg.User)
				serverErrors <- srv.ListenAndServe()
			}(srv)
		}

		select {
		case err := <-serverErrors:
			shutdown(servers, logger.Warn)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown...", "signal", ctx.Signal())
			shutdown(servers, logger.Warn)
			logger.Info("MDX Vision server stopped gracefully")
			return nil
		}
	},
}

// shutdown gives outstanding requests a deadline for completion.
func shutdown(servers []*http.Server, warn func(string, ...any)) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			warn("Graceful shutdown did not complete", "address", srv.Addr, "error", err)
			if err := srv.Close(); err != nil {
				warn("Error killing server", "address", srv.Addr, "error", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config, default :8080)")
	serveCmd.Flags().String("metrics-addr", "", "Separate address for /metrics")
}
