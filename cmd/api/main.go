package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/financeiro/internal/api/handlers"
	"github.com/dvloznov/financeiro/internal/api/middleware"
	"github.com/dvloznov/financeiro/internal/app"
	"github.com/dvloznov/financeiro/internal/config"
	"github.com/dvloznov/financeiro/internal/jobs"
	"github.com/dvloznov/financeiro/internal/jobs/inmemory"
	"github.com/dvloznov/financeiro/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to financeiro.toml (or set FINANCEIRO_CONFIG)")
		port       = flag.String("port", "", "HTTP server port (overrides http.port)")
		noSchedule = flag.Bool("no-scheduler", false, "Do not generate recurring transactions in this process")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.HTTP.Port = *port
	}

	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, inmemory.DefaultWorkers, jobStore, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.NewImportHandler(a.Session, a.Reconciler, a.Statements, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start import worker")
	}

	if !*noSchedule {
		go a.RunScheduler(workerCtx, cfg.Worker.Interval)
	}

	// Push every committed change to websocket clients
	feed := handlers.NewChangeFeed(log)
	unsubscribe := a.Session.Subscribe(feed.Publish)
	defer unsubscribe()

	mux := http.NewServeMux()
	handlers.Register(mux,
		handlers.NewStateHandler(a.Session, a.Session.Reducer(), log),
		handlers.NewChatHandler(a.Session, a.Dispatcher, a.Classifier, log),
		handlers.NewTransferHandler(a.Session, jobQueue, jobStore, log),
		feed,
	)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	// Chat requests wait on the model, so the write timeout covers a full
	// tool-calling exchange.
	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.AI.MaxRounds+1) * cfg.AI.CallTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTP.Port).Str("store", string(cfg.Store.Backend)).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := feed.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close change feed")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight imports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
