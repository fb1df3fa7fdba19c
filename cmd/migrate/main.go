package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/config"
	infraBQ "github.com/dvloznov/financeiro/internal/infra/bigquery"
	"github.com/dvloznov/financeiro/internal/logger"
	"github.com/dvloznov/financeiro/internal/store"
)

const (
	targetSQL      = "sql"
	targetBigQuery = "bigquery"
	targetAll      = "all"
)

var (
	configPath = flag.String("config", "", "Path to financeiro.toml (or set FINANCEIRO_CONFIG)")
	target     = flag.String("target", targetAll, "What to migrate: sql, bigquery or all")
	status     = flag.Bool("status", false, "List applied SQL migrations and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.Log.Level, cfg.Log.JSON)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	runSQL, runBQ, err := targets(*target, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid target")
	}

	if runSQL {
		if err := migrateSQL(ctx, cfg.Store, *status, log); err != nil {
			log.Fatal().Err(err).Msg("SQL migration failed")
		}
	}
	if runBQ && !*status {
		if err := migrateBigQuery(ctx, cfg, log); err != nil {
			log.Fatal().Err(err).Msg("BigQuery migration failed")
		}
	}
}

// targets decides which stores to migrate. With "all", stores that are not
// configured are skipped; naming one explicitly requires it.
func targets(name string, cfg config.Config) (runSQL, runBQ bool, err error) {
	_, _, hasSQL := sqlTarget(cfg.Store)
	hasBQ := cfg.BigQuery.Project != ""

	switch name {
	case targetAll:
		return hasSQL, hasBQ, nil
	case targetSQL:
		if !hasSQL {
			return false, false, fmt.Errorf("store.backend %q has no SQL schema", cfg.Store.Backend)
		}
		return true, false, nil
	case targetBigQuery:
		if !hasBQ {
			return false, false, fmt.Errorf("bigquery.project is not set")
		}
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown target %q", name)
}

// sqlTarget maps a store config onto a database driver and DSN.
func sqlTarget(cfg store.Config) (driver, dsn string, ok bool) {
	switch cfg.Backend {
	case store.BackendPostgres:
		return store.DriverPostgres, cfg.DSN, true
	case store.BackendSQLite:
		return store.DriverSQLite, cfg.Path, true
	}
	return "", "", false
}

func migrateSQL(ctx context.Context, cfg store.Config, statusOnly bool, log zerolog.Logger) error {
	driver, dsn, _ := sqlTarget(cfg)
	db, err := store.OpenSQL(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("driver", driver).Msg("Connected to database")

	if !statusOnly {
		n, err := store.Migrate(ctx, db, driver)
		if err != nil {
			return err
		}
		if n == 0 {
			log.Info().Msg("No new migrations to apply. Database is up to date.")
		} else {
			log.Info().Int("applied", n).Msg("Successfully applied migrations")
		}
	}

	applied, err := store.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	for _, am := range applied {
		checksum := am.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		fmt.Printf("  [OK] %04d_%s  %s  %s\n", am.Version, am.Name, am.AppliedAt.Format(time.RFC3339), checksum)
	}
	return nil
}

func migrateBigQuery(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	exp, err := infraBQ.NewExporter(ctx, cfg.BigQuery.Project, cfg.BigQuery.Dataset, cfg.BigQuery.Table, cfg.GCP.CredentialsFile, log)
	if err != nil {
		return err
	}
	defer exp.Close()

	log.Info().
		Str("project", cfg.BigQuery.Project).
		Str("dataset", cfg.BigQuery.Dataset).
		Str("table", cfg.BigQuery.Table).
		Msg("Ensuring BigQuery export table")
	return exp.EnsureTable(ctx)
}
