// Command migrate applies the embedded schema migrations. The server runs
// them on startup; this tool is for applying them out of band, and for
// rolling the newest one back.
//
// Usage:
//
//	go run ./cmd/migrate          # migrate up to the latest version
//	go run ./cmd/migrate -down    # roll back the most recent migration
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/db"
	"github.com/lumenauth/lumen/internal/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(database)

	if *down {
		err = db.MigrateDown(database.DB, cfg.DBDriver)
	} else {
		err = db.RunMigrations(database.DB, cfg.DBDriver)
	}
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
