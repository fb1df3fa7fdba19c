package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/dvloznov/financeiro/internal/domain"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// OpenSQL opens and pings a database. For SQLite dsn is a file path.
func OpenSQL(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("OpenSQL: empty dsn")
	}
	if driver == DriverSQLite {
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("OpenSQL: open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQL: ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}
	return db, nil
}

// SQLPersister keeps the blob as one row of app_state.
type SQLPersister struct {
	db     *sql.DB
	driver string
	key    string
	log    zerolog.Logger
}

func NewSQLPersister(db *sql.DB, driver, key string, log zerolog.Logger) *SQLPersister {
	if key == "" {
		key = domain.StorageKey
	}
	return &SQLPersister{db: db, driver: driver, key: key, log: log}
}

func (p *SQLPersister) Load(ctx context.Context) ([]byte, error) {
	var data string
	err := p.db.QueryRowContext(ctx, p.rebind(`SELECT data FROM app_state WHERE key = ?`), p.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("SQLPersister.Load: %w", err)
	}
	return []byte(data), nil
}

func (p *SQLPersister) Save(ctx context.Context, data []byte) error {
	query := p.rebind(`
		INSERT INTO app_state (key, data, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (key) DO UPDATE
		SET data = excluded.data, version = app_state.version + 1, updated_at = excluded.updated_at
	`)
	if _, err := p.db.ExecContext(ctx, query, p.key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("SQLPersister.Save: %w", err)
	}
	p.log.Debug().Str("key", p.key).Int("bytes", len(data)).Msg("State saved")
	return nil
}

// Version returns how many times the blob was saved.
func (p *SQLPersister) Version(ctx context.Context) (int64, error) {
	var v int64
	err := p.db.QueryRowContext(ctx, p.rebind(`SELECT version FROM app_state WHERE key = ?`), p.key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("SQLPersister.Version: %w", err)
	}
	return v, nil
}

func (p *SQLPersister) Close() error {
	return p.db.Close()
}

func (p *SQLPersister) rebind(query string) string {
	return rebind(p.driver, query)
}
