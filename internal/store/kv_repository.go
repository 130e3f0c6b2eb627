package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/opentimber/fieldsync/internal/config"
	"github.com/opentimber/fieldsync/internal/logger"
)

// kvRepository is the SQLite-backed LocalStore. All values live in a single
// `kv` table; every write runs inside one transaction so a crash leaves
// either the old or the new value under a key, never a mix.
type kvRepository struct {
	db       *DB
	maxBytes int64
	logger   *logger.Logger

	// mu serializes writers. The backup timer and the sync drain are
	// independent flows and may write concurrently; the quota check and
	// the upsert must observe each other's results.
	mu sync.Mutex
}

// NewLocalStore opens (creating if necessary) the SQLite database referenced
// by cfg, runs pending schema migrations, and returns a quota-bounded
// LocalStore backed by it.
func NewLocalStore(cfg config.Storage, log *logger.Logger) (LocalStore, error) {
	log.Info().Msg("creating local store...")

	db, err := NewConnectSQLite(context.Background(), cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultStoreMaxBytes
	}

	return &kvRepository{db: db, maxBytes: maxBytes, logger: log}, nil
}

// NewKVRepository wraps an already-open DB. Used by tests and by callers that
// manage the connection lifecycle themselves.
func NewKVRepository(db *DB, maxBytes int64, log *logger.Logger) LocalStore {
	return &kvRepository{db: db, maxBytes: maxBytes, logger: log}
}

func (s *kvRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := sq.Select("value").
		From("kv").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value []byte
	row := s.db.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		s.logger.Err(err).Str("func", "kvRepository.Get").Str("key", key).
			Msg("failed to scan kv row")
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return value, nil
}

func (s *kvRepository) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// quota check excludes the value currently held under this key: the
	// write replaces it, so only the delta counts.
	query, args, err := sq.Select("COALESCE(SUM(LENGTH(value)), 0)").
		From("kv").
		Where(sq.NotEq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var used int64
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&used); err != nil {
		return fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if used+int64(len(value)) > s.maxBytes {
		s.logger.Warn().Str("func", "kvRepository.Set").Str("key", key).
			Int64("used", used).Int("incoming", len(value)).Int64("max", s.maxBytes).
			Msg("write rejected: storage quota exceeded")
		return ErrQuotaExceeded
	}

	query, args, err = sq.Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "kvRepository.Set").Str("key", key).
			Msg("failed to upsert kv row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (s *kvRepository) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete("kv").
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Err(err).Str("func", "kvRepository.Delete").Str("key", key).
			Msg("failed to delete kv row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *kvRepository) Keys(ctx context.Context) ([]string, error) {
	query, _, err := sq.Select("key").
		From("kv").
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query kv keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating kv keys: %w", err)
	}

	return keys, nil
}

func (s *kvRepository) Close() error {
	return s.db.Close()
}
