// Package gorm provides GORM-based persistence for dispatched reports.
package gorm

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3" // Import SQLite driver
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect names returned by Store.Dialect.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Store represents the GORM database connection.
type Store struct {
	DB      *gorm.DB
	sqlDB   *sql.DB
	dialect string
}

// Config holds database configuration.
type Config struct {
	DSN      string          // postgres:// URL, or a path to a SQLite database file
	MaxConns int             // Maximum number of open connections (default: 4)
	LogLevel logger.LogLevel // GORM log level (logger.Silent for production)
}

// IsPostgresDSN reports whether dsn selects the Postgres dialect.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// NewStore opens the database, runs migrations and applies dialect pragmas.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("open database: empty DSN")
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		// PrepareStmt enables prepared statement caching for performance
		PrepareStmt: true,
	}

	store := &Store{}
	if IsPostgresDSN(cfg.DSN) {
		db, err := gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		store.DB, store.sqlDB, store.dialect = db, sqlDB, DialectPostgres
	} else {
		// Use sqlite3 driver (mattn/go-sqlite3), foreign keys enabled in DSN
		sqlDB, err := sql.Open("sqlite3", cfg.DSN+"?_foreign_keys=ON")
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gormCfg)
		if err != nil {
			_ = sqlDB.Close() // Explicitly ignore close error during cleanup
			return nil, fmt.Errorf("open gorm: %w", err)
		}
		store.DB, store.sqlDB, store.dialect = db, sqlDB, DialectSQLite
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	store.sqlDB.SetMaxOpenConns(maxConns)
	store.sqlDB.SetMaxIdleConns(maxConns)

	if err := store.sqlDB.Ping(); err != nil {
		_ = store.sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations FIRST (before PRAGMA commands)
	if err := runMigrations(store.DB); err != nil {
		_ = store.sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if store.dialect == DialectSQLite {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			// retry instead of failing immediately when the database is locked
			"PRAGMA busy_timeout=5000",
		}
		for _, p := range pragmas {
			if _, err := store.sqlDB.Exec(p); err != nil {
				_ = store.sqlDB.Close()
				return nil, fmt.Errorf("%s: %w", p, err)
			}
		}
	}

	return store, nil
}

// Dialect returns the active SQL dialect.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}

// GetDB returns the GORM DB instance for standard queries.
func (s *Store) GetDB() *gorm.DB {
	return s.DB
}
