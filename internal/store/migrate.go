package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ErrChecksumMismatch is returned when an applied migration file was edited.
var ErrChecksumMismatch = errors.New("store: migration checksum mismatch")

// Migration is one versioned schema file named NNNN_name.sql.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
}

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	checksum TEXT NOT NULL
)`

// ParseMigrationName splits NNNN_name.sql into its version and name.
func ParseMigrationName(filename string) (int, string, bool) {
	m := migrationPattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// ReadMigrations returns the migration files at the root of fsys sorted by
// version. Files not matching NNNN_name.sql are ignored.
func ReadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("ReadMigrations: %w", err)
	}

	var migrations []Migration
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, ok := ParseMigrationName(e.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("ReadMigrations: version %04d used by %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("ReadMigrations: reading %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version:  version,
			Name:     name,
			Filename: e.Name(),
			SQL:      string(content),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Migrate applies the embedded migrations that are not yet recorded in
// schema_migrations and returns how many ran.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}
	migrations, err := ReadMigrations(sub)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}
	return ApplyMigrations(ctx, db, driver, migrations)
}

// ApplyMigrations runs each pending migration in its own transaction.
// A recorded migration whose checksum changed is an error.
func ApplyMigrations(ctx context.Context, db *sql.DB, driver string, migrations []Migration) (int, error) {
	if _, err := db.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return 0, fmt.Errorf("ApplyMigrations: schema_migrations: %w", err)
	}
	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("ApplyMigrations: %w", err)
	}
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	count := 0
	for _, m := range migrations {
		if am, ok := byVersion[m.Version]; ok {
			if am.Checksum != m.Checksum {
				return count, fmt.Errorf("ApplyMigrations: %s: %w", m.Filename, ErrChecksumMismatch)
			}
			continue
		}
		if err := applyMigration(ctx, db, driver, m); err != nil {
			return count, fmt.Errorf("ApplyMigrations: %s: %w", m.Filename, err)
		}
		count++
	}
	return count, nil
}

func applyMigration(ctx context.Context, db *sql.DB, driver string, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		rebind(driver, `INSERT INTO schema_migrations (version, name, applied_at, checksum) VALUES (?, ?, ?, ?)`),
		m.Version, m.Name, time.Now().UTC(), m.Checksum)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// AppliedMigrations lists schema_migrations ordered by version.
func AppliedMigrations(ctx context.Context, db *sql.DB) ([]AppliedMigration, error) {
	rows, err := db.QueryContext(ctx, `SELECT version, name, applied_at, checksum FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("AppliedMigrations: %w", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Version, &am.Name, &am.AppliedAt, &am.Checksum); err != nil {
			return nil, fmt.Errorf("AppliedMigrations: scan: %w", err)
		}
		out = append(out, am)
	}
	return out, rows.Err()
}

// splitStatements splits a migration file on semicolons. Migration files
// must not contain semicolons inside literals.
func splitStatements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// rebind turns ? placeholders into $n for Postgres.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
