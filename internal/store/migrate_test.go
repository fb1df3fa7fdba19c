package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_app_state.sql", true, 1, "app_state"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			v, name, ok := ParseMigrationName(tt.filename)
			if ok != tt.valid || v != tt.version || name != tt.name {
				t.Errorf("ParseMigrationName(%q) = %d, %q, %v", tt.filename, v, name, ok)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"README.md":       {Data: []byte("notes")},
	}
	ms, err := ReadMigrations(fsys)
	if err != nil {
		t.Fatalf("ReadMigrations: %v", err)
	}
	if len(ms) != 2 || ms[0].Version != 1 || ms[1].Name != "second" {
		t.Fatalf("migrations = %+v", ms)
	}
	if ms[0].Checksum == ms[1].Checksum || len(ms[0].Checksum) != 64 {
		t.Errorf("checksums = %q, %q", ms[0].Checksum, ms[1].Checksum)
	}

	fsys["0001_again.sql"] = &fstest.MapFile{Data: []byte("SELECT 1;")}
	if _, err := ReadMigrations(fsys); err == nil {
		t.Error("duplicate version accepted")
	}
}

func TestMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer db.Close()

	n, err := Migrate(ctx, db, DriverSQLite)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if n != 2 {
		t.Errorf("applied = %d, want 2", n)
	}

	n, err = Migrate(ctx, db, DriverSQLite)
	if err != nil || n != 0 {
		t.Errorf("second Migrate = %d, %v", n, err)
	}

	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(applied) != 2 || applied[0].Name != "app_state" || applied[0].AppliedAt.IsZero() {
		t.Errorf("applied = %+v", applied)
	}

	if _, err := db.ExecContext(ctx, `INSERT INTO app_state (key, data, updated_at) VALUES ('k', '{}', CURRENT_TIMESTAMP)`); err != nil {
		t.Errorf("app_state not usable: %v", err)
	}
}

func TestApplyMigrations_ChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer db.Close()

	m := Migration{Version: 1, Name: "t", Filename: "0001_t.sql", SQL: "CREATE TABLE t (id INTEGER)", Checksum: "aaa"}
	if _, err := ApplyMigrations(ctx, db, DriverSQLite, []Migration{m}); err != nil {
		t.Fatalf("ApplyMigrations: %v", err)
	}

	m.Checksum = "bbb"
	if _, err := ApplyMigrations(ctx, db, DriverSQLite, []Migration{m}); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}
}

func TestApplyMigrations_FailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQL(ctx, DriverSQLite, filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer db.Close()

	bad := Migration{Version: 1, Name: "bad", Filename: "0001_bad.sql", SQL: "CREATE TABLE x (id INTEGER); NOT SQL", Checksum: "c"}
	if _, err := ApplyMigrations(ctx, db, DriverSQLite, []Migration{bad}); err == nil {
		t.Fatal("bad migration applied")
	}
	applied, err := AppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied = %+v", applied)
	}
}
