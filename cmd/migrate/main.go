package main

// Run database migrations:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -status

import (
	"context"
	"flag"
	"log"
	"os"

	"persona-review/internal/analyses"
	"persona-review/internal/conversations"
	"persona-review/internal/documents"
	"persona-review/internal/shared/config"
	"persona-review/internal/shared/storage/db"
	"persona-review/internal/shared/storage/sqlite"
)

func main() {
	status := flag.Bool("status", false, "print migration status instead of applying")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	switch cfg.DBDriver {
	case config.DriverSQLite:
		gdb, err := sqlite.Open(cfg.SQLitePath, true)
		if err != nil {
			log.Printf("failed to open sqlite: %v", err)
			os.Exit(1)
		}
		if err := sqlite.Migrate(gdb, documents.AutoMigrate, analyses.AutoMigrate, conversations.AutoMigrate); err != nil {
			log.Printf("failed to migrate sqlite: %v", err)
			os.Exit(1)
		}
		log.Printf("sqlite schema up to date at %s", cfg.SQLitePath)
		return
	case config.DriverMemory:
		log.Printf("DB_DRIVER=memory has no schema to migrate")
		return
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.Defaults(db.ProfileMigrate)))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if *status {
		if err := db.MigrationStatus(ctx, sqlDB); err != nil {
			log.Printf("failed to read migration status: %v", err)
			os.Exit(1)
		}
		return
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
