// Package testkit provides shared fixtures for package tests.
package testkit

import (
	"path/filepath"
	"testing"

	"github.com/Kerhoff/SmokeBot/internal/config"
	"github.com/Kerhoff/SmokeBot/migrations"
	"github.com/Kerhoff/SmokeBot/pkg/logger"
)

// OpenDatabase opens a file-backed SQLite database in a temporary directory,
// runs preMigrate statements, then applies the bootstrap migrations.
func OpenDatabase(t testing.TB, preMigrate ...string) *config.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "smoke.db")
	db, err := config.NewDatabase(path, logger.Discard())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range preMigrate {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("pre-migrate %q: %v", stmt, err)
		}
	}

	if err := db.Migrate(migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
