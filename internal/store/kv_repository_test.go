package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentimber/fieldsync/internal/logger"
)

func newMockRepo(t *testing.T, maxBytes int64) (LocalStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := &DB{DB: sqlDB, logger: logger.Nop()}
	return NewKVRepository(db, maxBytes, logger.Nop()), mock
}

func TestKVRepository_Get_Found(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectQuery("SELECT value FROM kv").
		WithArgs("sync/queue").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	got, err := repo.Get(context.Background(), "sync/queue")

	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Get_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectQuery("SELECT value FROM kv").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := repo.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Set_UpsertsInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(LENGTH\(value\)\), 0\) FROM kv`).
		WillReturnRows(sqlmock.NewRows([]string{"used"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO kv").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Set(context.Background(), "backup/records", []byte(`[]`))

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Set_QuotaExceeded(t *testing.T) {
	repo, mock := newMockRepo(t, 100)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(LENGTH\(value\)\), 0\) FROM kv`).
		WillReturnRows(sqlmock.NewRows([]string{"used"}).AddRow(int64(99)))
	mock.ExpectRollback()

	err := repo.Set(context.Background(), "backup/records", []byte("more than one byte"))

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Set_ExecFailureRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(LENGTH\(value\)\), 0\) FROM kv`).
		WillReturnRows(sqlmock.NewRows([]string{"used"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO kv").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Set(context.Background(), "k", []byte("v"))

	assert.ErrorIs(t, err, ErrExecutingStatement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectExec("DELETE FROM kv").
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVRepository_Keys(t *testing.T) {
	repo, mock := newMockRepo(t, 1<<20)

	mock.ExpectQuery("SELECT key FROM kv").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).
			AddRow("area/forms").
			AddRow("backup/records").
			AddRow("sync/queue"))

	keys, err := repo.Keys(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"area/forms", "backup/records", "sync/queue"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}
