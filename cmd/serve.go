package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/mealcal/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the estimation HTTP server",
	Long: `Start the HTTP server exposing POST /api/ai/calories.

The server runs until interrupted and shuts down gracefully, letting
in-flight estimations finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}

	logger, err := initLogger(cfg.Logging, debugFlag)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	orchestrator, err := buildOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, orchestrator, logger).Run(ctx)
}
