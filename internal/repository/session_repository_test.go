package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/traincore/tnms-api/internal/models"
)

func TestSessionRepositoryCreateWithBatchCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO nomination_batches").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO training_sessions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := &models.NominationBatch{Name: "Python 101 - Jan", ProgramID: "prog-1"}
	session := &models.TrainingSession{
		ProgramName: "Python 101",
		TrainerName: "A. Trainer",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Location:    "HQ",
	}
	err := repo.CreateWithBatch(context.Background(), batch, session)
	require.NoError(t, err)
	require.NotEmpty(t, batch.ID)
	require.Equal(t, models.BatchStatusForming, batch.Status)
	require.Equal(t, batch.ID, session.NominationBatchID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateWithBatchRollsBackOnSessionFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO nomination_batches").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO training_sessions").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	batch := &models.NominationBatch{Name: "Python 101 - Jan", ProgramID: "prog-1"}
	session := &models.TrainingSession{ProgramName: "Python 101"}
	err := repo.CreateWithBatch(context.Background(), batch, session)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByBatchID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "program_name", "trainer_name", "start_date", "end_date", "location", "topics", "nomination_batch_id", "created_at"}).
		AddRow("sess-1", "Python 101", "A. Trainer", time.Now(), time.Now(), "HQ", "", "batch-1", time.Now())
	mock.ExpectQuery("SELECT id, program_name").
		WithArgs("batch-1").
		WillReturnRows(rows)

	session, err := repo.FindByBatchID(context.Background(), "batch-1")
	require.NoError(t, err)
	require.Equal(t, "sess-1", session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
