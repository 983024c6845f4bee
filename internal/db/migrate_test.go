package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	testDB, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })

	return testDB
}

func tableExists(t *testing.T, testDB *sqlx.DB, name string) bool {
	t.Helper()

	var count int
	err := testDB.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, name)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count == 1
}

func TestRunMigrations(t *testing.T) {
	testDB := setupTestDB(t)

	if err := RunMigrations(testDB.DB, "sqlite"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	for _, table := range []string{"accounts", "login_tokens"} {
		if !tableExists(t, testDB, table) {
			t.Errorf("table %s missing after RunMigrations()", table)
		}
	}

	// Running again is a no-op.
	if err := RunMigrations(testDB.DB, "sqlite"); err != nil {
		t.Errorf("second RunMigrations() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	testDB := setupTestDB(t)

	if err := RunMigrations(testDB.DB, "sqlite"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	// Down rolls back one migration: the newest (login_tokens) goes,
	// accounts stays.
	if err := MigrateDown(testDB.DB, "sqlite"); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, testDB, "login_tokens") {
		t.Error("login_tokens still present after MigrateDown()")
	}
	if !tableExists(t, testDB, "accounts") {
		t.Error("accounts missing after a single MigrateDown()")
	}

	// Up brings it back.
	if err := RunMigrations(testDB.DB, "sqlite"); err != nil {
		t.Fatalf("RunMigrations() after MigrateDown() error = %v", err)
	}
	if !tableExists(t, testDB, "login_tokens") {
		t.Error("login_tokens missing after re-running migrations")
	}
}
