// Package testutil provides a migrated SQLite database and fixture
// builders for package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/Matipousi/UcuDB1/internal/database"
)

// NewSQLiteDB opens a temporary SQLite database with the schema migrated
// and the default slot catalogue synced.  The database is closed when the
// test ends.
func NewSQLiteDB(tb testing.TB) *sql.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	db, err := database.OpenSQLite(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := database.Migrate(ctx, db, database.DialectSQLite); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	if err := database.SyncTimeSlots(ctx, db, database.DialectSQLite, database.DefaultSlots()); err != nil {
		tb.Fatalf("failed to sync time slots: %v", err)
	}
	return db
}
