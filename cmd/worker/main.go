package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/financeiro/internal/app"
	"github.com/dvloznov/financeiro/internal/config"
	"github.com/dvloznov/financeiro/internal/logger"
)

// The worker generates recurring transactions when the API server is not
// running. Do not run both against the same store: each process keeps its
// own copy of the state and the last save wins.
func main() {
	var (
		configPath = flag.String("config", "", "Path to financeiro.toml (or set FINANCEIRO_CONFIG)")
		once       = flag.Bool("once", false, "Check recurring rules once and exit (for cron)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	if *once {
		n, err := a.CheckRecurring(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Recurring check failed")
			a.Close()
			os.Exit(1)
		}
		fmt.Printf("Generated %d recurring transaction(s).\n", n)
		return
	}

	log.Info().Dur("interval", cfg.Worker.Interval).Msg("Starting recurring rules worker")

	done := make(chan struct{})
	go func() {
		a.RunScheduler(ctx, cfg.Worker.Interval)
		close(done)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()
	<-done

	log.Info().Msg("Worker service stopped")
}
