package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mailbridge/internal/config"
	"mailbridge/internal/logger"
	"mailbridge/pkg/logging"
)

var (
	configFile string
	useSample  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bridge",
		Short: "Chat-to-email forwarding bridge",
		Long:  "Bridge polls a chat message source and forwards new messages as emails, at most once per message",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfigAndLogger() (*config.Config, logger.Logger, error) {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return nil, nil, fmt.Errorf("config file is required")
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, err
	}

	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting bridge")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			log.InfowCtx(ctx, "Bridge running",
				"recipient", cfg.Forwarding.RecipientAddress,
				"test_mode", cfg.Forwarding.TestMode,
			)
			if err := app.Run(ctx); err != nil && err != context.Canceled {
				log.ErrorwCtx(ctx, "Bridge stopped with error", "error", err)
				return err
			}
			log.InfowCtx(ctx, "Bridge shutdown complete")
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single fetch-and-forward pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app := NewApp(cfg, log)
			app.UseSampleSource(useSample)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			summary, err := app.CheckOnce(ctx)
			if err != nil {
				log.ErrorwCtx(ctx, "Check failed", "error", err)
				return err
			}

			fmt.Printf("delivered=%d skipped=%d filtered=%d failed=%d\n",
				summary.Delivered, summary.Skipped, summary.Filtered, summary.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&useSample, "sample", false, "Process the built-in sample feed instead of the configured source")
	return cmd
}
