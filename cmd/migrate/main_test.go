package main

import (
	"testing"

	"github.com/dvloznov/financeiro/internal/config"
	"github.com/dvloznov/financeiro/internal/store"
)

func TestSQLTarget(t *testing.T) {
	tests := []struct {
		cfg    store.Config
		driver string
		dsn    string
		ok     bool
	}{
		{store.Config{Backend: store.BackendPostgres, DSN: "postgres://x"}, store.DriverPostgres, "postgres://x", true},
		{store.Config{Backend: store.BackendSQLite, Path: "data/f.db"}, store.DriverSQLite, "data/f.db", true},
		{store.Config{Backend: store.BackendFile, Path: "data/f.json"}, "", "", false},
		{store.Config{Backend: store.BackendGCS}, "", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cfg.Backend), func(t *testing.T) {
			driver, dsn, ok := sqlTarget(tt.cfg)
			if driver != tt.driver || dsn != tt.dsn || ok != tt.ok {
				t.Errorf("sqlTarget = %q, %q, %v", driver, dsn, ok)
			}
		})
	}
}

func TestTargets(t *testing.T) {
	sqlite := config.Config{Store: store.Config{Backend: store.BackendSQLite, Path: "f.db"}}
	both := sqlite
	both.BigQuery.Project = "proj"
	file := config.Config{Store: store.Config{Backend: store.BackendFile}}

	tests := []struct {
		name    string
		target  string
		cfg     config.Config
		sql, bq bool
		wantErr bool
	}{
		{"all with both", targetAll, both, true, true, false},
		{"all with file store", targetAll, file, false, false, false},
		{"sql on file store", targetSQL, file, false, false, true},
		{"bigquery without project", targetBigQuery, sqlite, false, false, true},
		{"bigquery", targetBigQuery, both, false, true, false},
		{"unknown", "mongo", both, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, bq, err := targets(tt.target, tt.cfg)
			if (err != nil) != tt.wantErr || sql != tt.sql || bq != tt.bq {
				t.Errorf("targets = %v, %v, %v", sql, bq, err)
			}
		})
	}
}
