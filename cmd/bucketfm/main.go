// bucketfm serves a hierarchical file-manager view of a flat object store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bucketfm/bucketfm/internal/logging"
	"github.com/bucketfm/bucketfm/pkg/adapter/httpapi"
	"github.com/bucketfm/bucketfm/pkg/browser"
	"github.com/bucketfm/bucketfm/pkg/config"
	"github.com/bucketfm/bucketfm/pkg/metrics"
)

var (
	version = "dev"
	commit  = "unknown"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "bucketfm",
		Short: "File manager over a flat object store",
		Long: `bucketfm projects a hierarchical, filesystem-like namespace onto a
flat object store (Amazon S3 or compatible) and serves it over HTTP.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	rootCmd.AddCommand(serveCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	var forceInit bool
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(forceInit)
		},
	}
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bucketfm %s (%s)\n", version, commit)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runServe loads the configuration, wires every component and serves until
// a termination signal arrives.
func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting bucketfm",
		zap.String("version", version),
		zap.String("storage", cfg.Storage.Type),
		zap.String("access", cfg.Access.Type),
		zap.String("audit", cfg.Audit.Type),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := config.CreateStore(ctx, &cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to create storage backend: %w", err)
	}

	gate, err := config.CreateAccessProvider(ctx, &cfg.Access)
	if err != nil {
		return fmt.Errorf("failed to create access provider: %w", err)
	}

	sink, err := config.CreateAuditSink(ctx, &cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("failed to create audit sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close audit sink", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	instrumented := metrics.InstrumentStore(store, metrics.NewStorage(registry))

	svc := browser.New(instrumented, gate, sink, logger, metrics.New(registry))
	server := httpapi.New(cfg.Server, cfg.Auth, svc, sink, registry, logger)

	if err := server.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("server stopped gracefully")

	return nil
}

// runConfigInit writes the commented default configuration file.
func runConfigInit(force bool) error {
	path, err := config.InitConfig(force)
	if err != nil {
		return err
	}

	fmt.Printf("Wrote default configuration to %s\n", path)

	return nil
}
