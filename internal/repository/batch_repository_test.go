package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/traincore/tnms-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBatchRepositoryLockForSchedulingTransitions(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE nomination_batches SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("batch-1", models.BatchStatusForming, models.BatchStatusScheduled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	locked, err := repo.LockForScheduling(context.Background(), "batch-1")
	require.NoError(t, err)
	require.True(t, locked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryLockForSchedulingNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectExec("UPDATE nomination_batches").
		WithArgs("batch-1", models.BatchStatusForming, models.BatchStatusScheduled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	locked, err := repo.LockForScheduling(context.Background(), "batch-1")
	require.NoError(t, err)
	require.False(t, locked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryGetStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"status"}).AddRow(models.BatchStatusCompleted)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM nomination_batches WHERE id = $1 LIMIT 1")).
		WithArgs("batch-1").
		WillReturnRows(rows)

	status, err := repo.GetStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	require.Equal(t, models.BatchStatusCompleted, status)
	require.NoError(t, mock.ExpectationsWereMet())
}
