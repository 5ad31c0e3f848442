package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/talentmesh/internal/scheduler"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	Long: "Starts the HTTP API, the background refresh and pruning loops, and the reindex\n" +
		"queue worker when a queue URL is configured. Blocks until SIGINT/SIGTERM.",
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	logger.Info("config loaded",
		"db", cfg.Database.Driver,
		"ai_provider", cfg.AI.Provider,
		"refresh_interval", cfg.Reindex.Interval.String(),
		"prune_interval", cfg.Reindex.PruneInterval.String(),
		"queue", cfg.Queue.URL != "",
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serveAPI(gctx, a, logger) })
	g.Go(func() error { return scheduler.NewScheduler(maintenanceTasks(a, logger), logger).Run(gctx) })
	if cfg.Queue.URL != "" {
		g.Go(func() error { return consumeQueue(gctx, a, logger) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	logger.Info("goodbye")
	return nil
}
