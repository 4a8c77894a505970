package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/traincore/tnms-api/internal/models"
)

// NominationRepository handles persistence of nominations.
type NominationRepository struct {
	db *sqlx.DB
}

// NewNominationRepository constructs the repository.
func NewNominationRepository(db *sqlx.DB) *NominationRepository {
	return &NominationRepository{db: db}
}

// FindByID returns a nomination by identifier.
func (r *NominationRepository) FindByID(ctx context.Context, id string) (*models.Nomination, error) {
	const query = `SELECT id, emp_id, program_id, batch_id, status, manager_approval_status, manager_rejection_reason, source, justification, created_at, updated_at FROM nominations WHERE id = $1 LIMIT 1`
	var nomination models.Nomination
	if err := r.db.GetContext(ctx, &nomination, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find nomination by id: %w", err)
	}
	return &nomination, nil
}

// FindWithBatchStatus loads a nomination together with its batch's current
// status in one query, so removal guards act on a consistent view.
func (r *NominationRepository) FindWithBatchStatus(ctx context.Context, id string) (*models.NominationWithBatch, error) {
	const query = `SELECT n.id, n.emp_id, n.program_id, n.batch_id, n.status, n.manager_approval_status, n.manager_rejection_reason, n.source, n.justification, n.created_at, n.updated_at,
        b.status AS batch_status
        FROM nominations n
        LEFT JOIN nomination_batches b ON b.id = n.batch_id
        WHERE n.id = $1`
	var result models.NominationWithBatch
	if err := r.db.GetContext(ctx, &result, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find nomination with batch: %w", err)
	}
	return &result, nil
}

// ExistsInBatch reports whether an employee already holds a nomination in
// the batch. Double-scan protection for the QR join path.
func (r *NominationRepository) ExistsInBatch(ctx context.Context, empID, batchID string) (bool, error) {
	const query = `SELECT 1 FROM nominations WHERE emp_id = $1 AND batch_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, empID, batchID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check nomination in batch: %w", err)
	}
	return true, nil
}

// Create persists a new nomination record.
func (r *NominationRepository) Create(ctx context.Context, nomination *models.Nomination) error {
	if nomination.ID == "" {
		nomination.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	nomination.CreatedAt = now
	nomination.UpdatedAt = now
	if nomination.Status == "" {
		nomination.Status = models.NominationStatusPending
	}
	if nomination.ManagerApprovalStatus == "" {
		nomination.ManagerApprovalStatus = models.ApprovalStatusPending
	}
	const query = `INSERT INTO nominations (id, emp_id, program_id, batch_id, status, manager_approval_status, manager_rejection_reason, source, justification, created_at, updated_at)
        VALUES (:id, :emp_id, :program_id, :batch_id, :status, :manager_approval_status, :manager_rejection_reason, :source, :justification, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, nomination); err != nil {
		return fmt.Errorf("create nomination: %w", err)
	}
	return nil
}

// AttachToBatch moves a nomination into a batch. Manager approval always
// drops back to PENDING: approval is scoped to this specific session, not
// the program in general.
func (r *NominationRepository) AttachToBatch(ctx context.Context, id, batchID string) error {
	const query = `UPDATE nominations SET batch_id = $2, status = $3, manager_approval_status = $4, manager_rejection_reason = NULL, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, batchID, models.NominationStatusBatched, models.ApprovalStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("attach nomination to batch: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DetachFromBatch fully resets a nomination to its pre-batching state so a
// previously rejected nomination becomes eligible again.
func (r *NominationRepository) DetachFromBatch(ctx context.Context, id string) error {
	const query = `UPDATE nominations SET batch_id = NULL, status = $2, manager_approval_status = $3, manager_rejection_reason = NULL, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.NominationStatusPending, models.ApprovalStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("detach nomination from batch: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindDetailByID returns a nomination with employee and program context.
func (r *NominationRepository) FindDetailByID(ctx context.Context, id string) (*models.NominationDetail, error) {
	const query = `SELECT n.id, n.emp_id, n.program_id, n.batch_id, n.status, n.manager_approval_status, n.manager_rejection_reason, n.source, n.justification, n.created_at, n.updated_at,
        e.name AS employee_name, p.name AS program_name, e.manager_name, e.manager_email
        FROM nominations n
        LEFT JOIN employees e ON e.id = n.emp_id
        LEFT JOIN programs p ON p.id = n.program_id
        WHERE n.id = $1`
	var detail models.NominationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find nomination detail: %w", err)
	}
	return &detail, nil
}

// ListByBatch returns the roster of a batch with employee context.
func (r *NominationRepository) ListByBatch(ctx context.Context, batchID string) ([]models.NominationDetail, error) {
	const query = `SELECT n.id, n.emp_id, n.program_id, n.batch_id, n.status, n.manager_approval_status, n.manager_rejection_reason, n.source, n.justification, n.created_at, n.updated_at,
        e.name AS employee_name, p.name AS program_name, e.manager_name, e.manager_email
        FROM nominations n
        LEFT JOIN employees e ON e.id = n.emp_id
        LEFT JOIN programs p ON p.id = n.program_id
        WHERE n.batch_id = $1
        ORDER BY e.name ASC`
	var roster []models.NominationDetail
	if err := r.db.SelectContext(ctx, &roster, query, batchID); err != nil {
		return nil, fmt.Errorf("list batch roster: %w", err)
	}
	return roster, nil
}

// List returns nominations filtered by the provided criteria. The Unbatched
// flag drives the pending-waitlist view feeding admin bulk-add.
func (r *NominationRepository) List(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, int, error) {
	base := `FROM nominations n
LEFT JOIN employees e ON e.id = n.emp_id
LEFT JOIN programs p ON p.id = n.program_id`
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("n.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("n.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ApprovalStatus != "" {
		conditions = append(conditions, fmt.Sprintf("n.manager_approval_status = $%d", len(args)+1))
		args = append(args, filter.ApprovalStatus)
	}
	if filter.Unbatched {
		conditions = append(conditions, "n.batch_id IS NULL")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT n.id, n.emp_id, n.program_id, n.batch_id, n.status, n.manager_approval_status, n.manager_rejection_reason, n.source, n.justification, n.created_at, n.updated_at,
        e.name AS employee_name, p.name AS program_name, e.manager_name, e.manager_email
        %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var nominations []models.NominationDetail
	if err := r.db.SelectContext(ctx, &nominations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list nominations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count nominations: %w", err)
	}
	return nominations, total, nil
}
