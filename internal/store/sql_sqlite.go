package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/migrations"
)

// DB wraps the sql connection handed to the kv repository.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Migrate applies pending kv schema migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}

// NewConnectSQLite opens the SQLite database at cfg.DSN, creating the file
// and its parent directory on first run.
func NewConnectSQLite(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	if err := ensureDBFile(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Str("dsn", cfg.DSN).
			Msg("preparing database file failed")
		return nil, fmt.Errorf("preparing database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("opening database failed")
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// single writer keeps per-key writes atomic under concurrent timers
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("database unreachable")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("local database ready")

	return &DB{DB: conn, logger: log}, nil
}

// ensureDBFile creates the database file and its directory when absent, so
// first launch on a fresh device does not fail.
func ensureDBFile(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating database file: %w", err)
	}
	return f.Close()
}
