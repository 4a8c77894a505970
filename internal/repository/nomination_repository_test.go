package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/traincore/tnms-api/internal/models"
)

func TestNominationRepositoryAttachToBatchResetsApproval(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE nominations SET batch_id = $2, status = $3, manager_approval_status = $4, manager_rejection_reason = NULL, updated_at = $5 WHERE id = $1")).
		WithArgs("nom-1", "batch-1", models.NominationStatusBatched, models.ApprovalStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachToBatch(context.Background(), "nom-1", "batch-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationRepositoryDetachFromBatchResetsEverything(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE nominations SET batch_id = NULL, status = $2, manager_approval_status = $3, manager_rejection_reason = NULL, updated_at = $4 WHERE id = $1")).
		WithArgs("nom-1", models.NominationStatusPending, models.ApprovalStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DetachFromBatch(context.Background(), "nom-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationRepositoryAttachToBatchMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectExec("UPDATE nominations SET batch_id").
		WithArgs("ghost", "batch-1", models.NominationStatusBatched, models.ApprovalStatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AttachToBatch(context.Background(), "ghost", "batch-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationRepositoryExistsInBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM nominations WHERE emp_id = $1 AND batch_id = $2 LIMIT 1")).
		WithArgs("EMP123", "batch-1").
		WillReturnRows(rows)

	exists, err := repo.ExistsInBatch(context.Background(), "EMP123", "batch-1")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationRepositoryExistsInBatchMiss(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	mock.ExpectQuery("SELECT 1 FROM nominations").
		WithArgs("EMP123", "batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsInBatch(context.Background(), "EMP123", "batch-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNominationRepositoryFindWithBatchStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNominationRepository(db)

	batchID := "batch-1"
	rows := sqlmock.NewRows([]string{"id", "emp_id", "program_id", "batch_id", "status", "manager_approval_status", "manager_rejection_reason", "source", "justification", "created_at", "updated_at", "batch_status"}).
		AddRow("nom-1", "EMP123", "prog-1", batchID, models.NominationStatusBatched, models.ApprovalStatusRejected, "Not relevant", models.NominationSourceAdmin, "", time.Now(), time.Now(), models.BatchStatusForming)
	mock.ExpectQuery("SELECT n.id, n.emp_id").
		WithArgs("nom-1").
		WillReturnRows(rows)

	result, err := repo.FindWithBatchStatus(context.Background(), "nom-1")
	require.NoError(t, err)
	require.NotNil(t, result.BatchStatus)
	require.Equal(t, models.BatchStatusForming, *result.BatchStatus)
	require.Equal(t, models.ApprovalStatusRejected, result.ManagerApprovalStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}
