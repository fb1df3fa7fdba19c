// Package store persists the single State blob and owns the live State of a
// running process.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned by Persister.Load when nothing was saved yet.
	ErrNotFound = errors.New("store: state not found")
	// ErrUnknownBackend is returned by NewPersister for an unsupported backend.
	ErrUnknownBackend = errors.New("store: unknown backend")
)

// Persister loads and saves the whole state blob.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

type Backend string

const (
	BackendFile     Backend = "file"
	BackendGCS      Backend = "gcs"
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Config selects and configures a persister.
type Config struct {
	Backend         Backend `mapstructure:"backend"`
	Path            string  `mapstructure:"path"`
	Bucket          string  `mapstructure:"bucket"`
	Object          string  `mapstructure:"object"`
	DSN             string  `mapstructure:"dsn"`
	Key             string  `mapstructure:"key"`
	CredentialsFile string  `mapstructure:"-"`
}

// NewPersister opens the persister named by cfg.Backend.
func NewPersister(ctx context.Context, cfg Config, log zerolog.Logger) (Persister, error) {
	log = log.With().Str("backend", string(cfg.Backend)).Logger()

	switch cfg.Backend {
	case BackendFile, "":
		return NewFilePersister(cfg.Path), nil
	case BackendGCS:
		return NewGCSPersister(ctx, cfg.Bucket, cfg.Object, cfg.CredentialsFile)
	case BackendPostgres:
		db, err := OpenSQL(ctx, DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("NewPersister: %w", err)
		}
		if err := migrate(ctx, db, DriverPostgres, log); err != nil {
			db.Close()
			return nil, fmt.Errorf("NewPersister: %w", err)
		}
		return NewSQLPersister(db, DriverPostgres, cfg.Key, log), nil
	case BackendSQLite:
		db, err := OpenSQL(ctx, DriverSQLite, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("NewPersister: %w", err)
		}
		if err := migrate(ctx, db, DriverSQLite, log); err != nil {
			db.Close()
			return nil, fmt.Errorf("NewPersister: %w", err)
		}
		return NewSQLPersister(db, DriverSQLite, cfg.Key, log), nil
	}
	return nil, fmt.Errorf("NewPersister: %q: %w", cfg.Backend, ErrUnknownBackend)
}

func migrate(ctx context.Context, db *sql.DB, driver string, log zerolog.Logger) error {
	n, err := Migrate(ctx, db, driver)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int("applied", n).Msg("Applied schema migrations")
	}
	return nil
}
