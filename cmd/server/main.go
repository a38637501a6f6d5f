package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docnav/internal/api"
	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/pipeline"
	"github.com/dgallion1/docnav/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfgPath := flag.String("config", os.Getenv("DOCNAV_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize build pipeline.
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(ctx)

	// Live page sessions, swept once a minute.
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.Start(ctx, time.Minute)

	// Initialize HTTP server.
	srv := api.NewServer(orch, sessions, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting docnav", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := serve(sigCtx, httpServer, log, orch.Stop, sessions.Stop); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs httpServer until ctx is done, then shuts it down and calls
// each cleanup in order. It returns only after the cleanups have finished.
func serve(ctx context.Context, httpServer *http.Server, log *slog.Logger, cleanup ...func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		for _, fn := range cleanup {
			fn()
		}
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// ListenAndServe returns as soon as Shutdown starts.
	<-done
	return nil
}
