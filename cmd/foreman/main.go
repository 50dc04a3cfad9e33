package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/specfleet/foreman/pkg/api"
	"github.com/specfleet/foreman/pkg/config"
	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "foreman",
	Short: "Foreman - sequential plan scheduler",
	Long: `Foreman accepts multi-step plans over HTTP, persists them, and drives
each plan's specs through a strictly sequential lifecycle in response to
status events pushed by an external execution fleet.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Foreman version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().String("listen-addr", "", "HTTP bind address (overrides config)")
	serveCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plan scheduler HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if v, _ := cmd.Flags().GetString("listen-addr"); v != "" {
			cfg.ListenAddr = v
		}
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			cfg.DataDir = v
		}

		log.Init(log.Config{
			Level:       log.Level(cfg.LogLevel),
			ServiceName: cfg.ServiceName,
			JSONOutput:  cfg.LogJSON,
		})

		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		store, err := storage.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		// Identity-token verification lives at the transport edge; no
		// verifier is wired here, so identity_token mode rejects until a
		// deployment provides one.
		server := api.NewServer(cfg, store, nil)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			logger := log.WithComponent("main")
			logger.Info().
				Str("signal", sig.String()).
				Msg("shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Stop(ctx)
	},
}
