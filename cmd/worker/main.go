package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-portal/config"
	"github.com/jwalitptl/clinic-portal/internal/repository/postgres"
	"github.com/jwalitptl/clinic-portal/internal/worker"
	"github.com/jwalitptl/clinic-portal/pkg/logger"
)

// The worker prunes integration logs out of process, for deployments that
// run several API instances and want a single pruner.
func main() {
	once := flag.Bool("once", false, "prune once and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	lg := logger.NewLogger(&logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		lg.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	repo := postgres.NewIntegrationLogRepository(postgres.NewBaseRepository(db, nil))
	w := worker.NewRetentionWorker(repo, cfg.Retention.IntegrationLogs, cfg.Retention.Interval, lg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *once {
		if _, err := w.RunOnce(ctx); err != nil {
			lg.Error(err, "integration log cleanup failed")
			os.Exit(1)
		}
		return
	}

	lg.Info("retention worker started")
	w.Start(ctx)
	lg.Info("retention worker stopped")
}
