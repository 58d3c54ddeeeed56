package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/docgraph/internal/config"
	"github.com/dgallion1/docgraph/internal/pathstore"
	"github.com/dgallion1/docgraph/internal/pipeline"
)

// Run starts the pipeline and serves the API until ctx is cancelled, then
// shuts both down.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var ps *pathstore.Client
	if cfg.PublishingEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		defer ps.Close()
	}

	orch := pipeline.NewOrchestrator(cfg, ps, log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting docgraph", "port", cfg.Port, "publishing", ps != nil)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	err := httpServer.Shutdown(shutdownCtx)
	orch.Stop()
	return err
}
