// Package repo implements the SQL-backed persistence layer for domain
// entities using GORM. This file contains database bootstrapping for the
// pure-Go SQLite driver (local development and tests) and for Postgres
// (a direct connection to the Supabase database), plus the local-only
// schema migration.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/docset-relay/internal/config"
	"github.com/tbourn/docset-relay/internal/domain"
)

// Open connects to the SQL backend selected by cfg.Backend. Only the
// sqlite backend is migrated; the remote Postgres schema belongs to the
// front end and is used as-is.
func Open(cfg config.StoreConfig) (*gorm.DB, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", cfg.DBPath, err)
		}
		return db, nil
	case config.BackendPostgres:
		return OpenPostgres(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("repo: backend %q is not a SQL backend", cfg.Backend)
	}
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return instrument(db)
}

// OpenPostgres connects to Postgres using a libpq-style DSN or URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return instrument(db)
}

// instrument registers the OpenTelemetry tracing plugin so every statement
// becomes a child span of the request that issued it.
func instrument(db *gorm.DB) (*gorm.DB, error) {
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("register gorm tracing: %w", err)
	}
	return db, nil
}

// AutoMigrate creates the three store tables for local SQLite databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.ServiceResponse{},
		&domain.Message{},
		&domain.City{},
	)
}
