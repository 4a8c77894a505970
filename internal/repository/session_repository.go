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

// SessionRepository handles persistence of training sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateWithBatch inserts a batch and its session as one transaction so a
// failed session insert never leaves an orphan batch behind.
func (r *SessionRepository) CreateWithBatch(ctx context.Context, batch *models.NominationBatch, session *models.TrainingSession) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now
	session.CreatedAt = now
	session.NominationBatchID = batch.ID
	if batch.Status == "" {
		batch.Status = models.BatchStatusForming
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const batchQuery = `INSERT INTO nomination_batches (id, name, program_id, status, created_at, updated_at)
        VALUES (:id, :name, :program_id, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, batchQuery, batch); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}

	const sessionQuery = `INSERT INTO training_sessions (id, program_name, trainer_name, start_date, end_date, location, topics, nomination_batch_id, created_at)
        VALUES (:id, :program_name, :trainer_name, :start_date, :end_date, :location, :topics, :nomination_batch_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, sessionQuery, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session transaction: %w", err)
	}
	return nil
}

// FindByID returns a session by identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.TrainingSession, error) {
	const query = `SELECT id, program_name, trainer_name, start_date, end_date, location, topics, nomination_batch_id, created_at FROM training_sessions WHERE id = $1 LIMIT 1`
	var session models.TrainingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// FindByBatchID returns the session bound to a batch, if one exists.
func (r *SessionRepository) FindByBatchID(ctx context.Context, batchID string) (*models.TrainingSession, error) {
	const query = `SELECT id, program_name, trainer_name, start_date, end_date, location, topics, nomination_batch_id, created_at FROM training_sessions WHERE nomination_batch_id = $1 LIMIT 1`
	var session models.TrainingSession
	if err := r.db.GetContext(ctx, &session, query, batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by batch: %w", err)
	}
	return &session, nil
}

// FindDetailByID returns a session joined with its batch and roster count.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	const query = `SELECT s.id, s.program_name, s.trainer_name, s.start_date, s.end_date, s.location, s.topics, s.nomination_batch_id, s.created_at,
        b.name AS batch_name, b.status AS batch_status,
        (SELECT COUNT(*) FROM nominations n WHERE n.batch_id = b.id) AS enrolled
        FROM training_sessions s
        JOIN nomination_batches b ON b.id = s.nomination_batch_id
        WHERE s.id = $1`
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session detail: %w", err)
	}
	return &detail, nil
}

// List returns sessions filtered by the provided criteria.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	base := `FROM training_sessions s
JOIN nomination_batches b ON b.id = s.nomination_batch_id`
	var conditions []string
	var args []interface{}

	if filter.ProgramName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.program_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.ProgramName)+"%")
	}
	if filter.TrainerName != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.trainer_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.TrainerName)+"%")
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date":   "s.start_date",
		"program_name": "s.program_name",
		"created_at":   "s.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "s.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT s.id, s.program_name, s.trainer_name, s.start_date, s.end_date, s.location, s.topics, s.nomination_batch_id, s.created_at,
        b.name AS batch_name, b.status AS batch_status,
        (SELECT COUNT(*) FROM nominations n WHERE n.batch_id = b.id) AS enrolled
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}
