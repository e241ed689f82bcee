// Command migrate applies the SQL files in migrations/ that gorm's
// AutoMigrate cannot express (partial and expression indexes). Applied files
// are recorded in schema_migrations and skipped on the next run.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"superteam-earn/internal/logger"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.sql migrations")
	dryRun := flag.Bool("dry-run", false, "list pending migrations without applying them")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	zapLogger, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := sql.Open("postgres", dsn())
	if err != nil {
		zap.L().Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		zap.L().Fatal("failed to ping database", zap.Error(err))
	}

	applied, err := run(db, *dir, *dryRun)
	if err != nil {
		zap.L().Fatal("migration failed", zap.Error(err))
	}
	zap.L().Info("migrations complete", zap.Int("applied", applied), zap.Bool("dry_run", *dryRun))
}

func dsn() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), sslMode)
}

func run(db *sql.DB, dir string, dryRun bool) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		name := filepath.Base(file)

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&exists); err != nil {
			return applied, err
		}
		if exists {
			continue
		}

		if dryRun {
			zap.L().Info("pending migration", zap.String("name", name))
			continue
		}

		body, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("read %s: %w", name, err)
		}
		if err := apply(db, name, string(body)); err != nil {
			return applied, err
		}
		zap.L().Info("applied migration", zap.String("name", name))
		applied++
	}
	return applied, nil
}

func apply(db *sql.DB, name, body string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(body); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}
	return tx.Commit()
}
