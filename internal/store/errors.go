package store

import "errors"

// Sentinel errors returned by LocalStore implementations to signal well-known
// failure conditions. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrKeyNotFound is returned by Get when no value is stored under the
	// requested key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned by Set when the write would push the
	// total stored size past the configured bound. The write is rejected
	// wholesale; the caller is expected to surface this to the user so old
	// backups can be pruned.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Low-level database operation errors. These are returned (or wrapped) by the
// SQLite-backed store when a SQL-level operation fails.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open
	// transaction fails. The transaction is considered rolled back.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")
)
