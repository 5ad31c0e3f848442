package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/amishk599/talentmesh/internal/api"
	"github.com/amishk599/talentmesh/internal/jobboard"
	"github.com/amishk599/talentmesh/internal/model"
	"github.com/amishk599/talentmesh/internal/queue"
	"github.com/amishk599/talentmesh/internal/scheduler"
)

// serveAPI runs the HTTP server until ctx is cancelled, then drains
// in-flight requests for up to the configured shutdown timeout.
func serveAPI(ctx context.Context, a *app, logger *slog.Logger) error {
	srv := api.NewServer(api.Deps{
		Scorer:  a.scorer,
		Search:  a.search,
		Peers:   a.peers,
		History: a.history,
		Indexer: a.indexer,
	}, a.cfg.Server.RequestTimeout, logger)

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down api server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}

// consumeQueue runs the reindex workers until ctx is cancelled.
func consumeQueue(ctx context.Context, a *app, logger *slog.Logger) error {
	qc := a.cfg.Queue
	broker, err := queue.Dial(qc.URL, qc.Queue, qc.Exchange)
	if err != nil {
		return err
	}
	defer broker.Close()

	deliveries, err := broker.Deliveries(qc.Workers)
	if err != nil {
		return err
	}

	var downloader queue.Downloader
	objects, err := setupObjectStore(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("creating object store client: %w", err)
	}
	if objects != nil {
		downloader = objects
	}

	worker := queue.NewWorker(a.indexer, downloader, broker, qc.Timeout, logger)
	logger.Info("consuming reindex queue", "queue", qc.Queue, "workers", qc.Workers)
	worker.Consume(ctx, deliveries, qc.Workers)
	return nil
}

// buildImporters creates one importer per configured board. Boards whose
// ATS is unsupported are skipped with a warning.
func buildImporters(a *app, httpClient *http.Client, logger *slog.Logger) jobboard.Importers {
	var n model.Notifier
	var searcher jobboard.Searcher
	if a.cfg.Import.Notify {
		n = setupNotifier(a.cfg, httpClient, logger)
		searcher = a.search
	}

	var importers jobboard.Importers
	for _, bc := range a.cfg.Import.Boards {
		board, err := jobboard.New(bc.ATS, bc.BoardToken, bc.Name, httpClient)
		if err != nil {
			logger.Warn("skipping board", "board", bc.Name, "error", err)
			continue
		}
		importers = append(importers, jobboard.NewImporter(bc.Name, board, a.store, a.indexer, jobboard.Options{
			OrgID:            bc.OrgID,
			Locations:        bc.Locations,
			ExcludeLocations: bc.ExcludeLocations,
			Searcher:         searcher,
			Notifier:         n,
			MatchLimit:       a.cfg.Import.MatchLimit,
		}, logger))
	}
	return importers
}

func maintenanceTasks(a *app, logger *slog.Logger) []scheduler.Task {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return []scheduler.Task{
		scheduler.RefreshTask(a.indexer, a.cfg.Reindex.Interval, logger),
		scheduler.ImportTask(buildImporters(a, httpClient, logger), a.cfg.Import.Interval, logger),
		scheduler.PruneTask(a.store, a.cfg.Search.HistoryRetention, a.cfg.Reindex.PruneInterval, logger),
	}
}
