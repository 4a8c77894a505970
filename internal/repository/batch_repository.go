package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/traincore/tnms-api/internal/models"
)

// BatchRepository handles persistence of nomination batches.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// FindByID returns a batch by identifier.
func (r *BatchRepository) FindByID(ctx context.Context, id string) (*models.NominationBatch, error) {
	const query = `SELECT id, name, program_id, status, created_at, updated_at FROM nomination_batches WHERE id = $1 LIMIT 1`
	var batch models.NominationBatch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch by id: %w", err)
	}
	return &batch, nil
}

// GetStatus returns just the current status of a batch.
func (r *BatchRepository) GetStatus(ctx context.Context, id string) (models.BatchStatus, error) {
	const query = `SELECT status FROM nomination_batches WHERE id = $1 LIMIT 1`
	var status models.BatchStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get batch status: %w", err)
	}
	return status, nil
}

// LockForScheduling moves a FORMING batch to SCHEDULED. The status check and
// the write are a single conditional update so two concurrent lockers cannot
// both win, and a COMPLETED batch can never be overwritten back to SCHEDULED.
// Returns true when this call performed the transition.
func (r *BatchRepository) LockForScheduling(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE nomination_batches SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, models.BatchStatusForming, models.BatchStatusScheduled, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("lock batch: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lock batch rows affected: %w", err)
	}
	return affected == 1, nil
}
