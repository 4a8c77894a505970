package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
	"github.com/traincore/tnms-api/pkg/export"
)

// Cache key patterns for session views. Every successful mutation clears
// the whole sessions namespace.
const (
	sessionCachePattern   = "sessions:*"
	sessionListKeyPrefix  = "sessions:list:"
	sessionDetailKeyForID = "sessions:detail:%s"
)

type sessionRepository interface {
	CreateWithBatch(ctx context.Context, batch *models.NominationBatch, session *models.TrainingSession) error
	FindByID(ctx context.Context, id string) (*models.TrainingSession, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, int, error)
}

type batchLocker interface {
	GetStatus(ctx context.Context, id string) (models.BatchStatus, error)
	LockForScheduling(ctx context.Context, id string) (bool, error)
}

type programByName interface {
	FindByName(ctx context.Context, name string) (*models.Program, error)
}

type batchRosterReader interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.NominationDetail, error)
}

type viewCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// CreateSessionRequest describes session creation payload.
type CreateSessionRequest struct {
	ProgramName string    `json:"program_name" validate:"required"`
	TrainerName string    `json:"trainer_name" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location    string    `json:"location" validate:"required"`
	Topics      string    `json:"topics"`
}

// SessionListResult is the cached shape of a session list page.
type SessionListResult struct {
	Sessions   []models.SessionDetail `json:"sessions"`
	Pagination *models.Pagination     `json:"pagination"`
}

// SessionService orchestrates session and batch lifecycle workflows.
type SessionService struct {
	sessions  sessionRepository
	batches   batchLocker
	programs  programByName
	roster    batchRosterReader
	cache     viewCache
	cacheTTL  time.Duration
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs SessionService.
func NewSessionService(sessions sessionRepository, batches batchLocker, programs programByName, roster batchRosterReader, cache viewCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &SessionService{
		sessions:  sessions,
		batches:   batches,
		programs:  programs,
		roster:    roster,
		cache:     cache,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Create atomically creates a FORMING batch and its training session for an
// existing program. No partial writes survive a failure.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.TrainingSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	program, err := s.programs.FindByName(ctx, req.ProgramName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	batch := &models.NominationBatch{
		Name:      fmt.Sprintf("%s - %s", program.Name, req.StartDate.Format("Jan 2006")),
		ProgramID: program.ID,
		Status:    models.BatchStatusForming,
	}
	session := &models.TrainingSession{
		ProgramName: program.Name,
		TrainerName: req.TrainerName,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Location:    req.Location,
		Topics:      req.Topics,
	}

	if err := s.sessions.CreateWithBatch(ctx, batch, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.invalidateViews(ctx)
	return session, nil
}

// Lock confirms a session's enrollment list, moving its batch from FORMING
// to SCHEDULED. Re-locking an already SCHEDULED batch is a no-op success;
// locking a COMPLETED batch is an explicit error.
func (s *SessionService) Lock(ctx context.Context, sessionID string) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session or batch not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.NominationBatchID == "" {
		return appErrors.Clone(appErrors.ErrNotFound, "session or batch not found")
	}

	performed, err := s.batches.LockForScheduling(ctx, session.NominationBatchID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock batch")
	}

	if !performed {
		// The guarded update matched nothing, so the batch left FORMING
		// before this call. Re-read to tell the two cases apart.
		status, err := s.batches.GetStatus(ctx, session.NominationBatchID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "session or batch not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read batch status")
		}
		switch status {
		case models.BatchStatusCompleted:
			return appErrors.Clone(appErrors.ErrBatchCompleted, "")
		case models.BatchStatusScheduled:
			// Already locked by a concurrent caller. Idempotent success.
		default:
			return appErrors.Clone(appErrors.ErrInternal, "failed to lock batch")
		}
	}

	s.invalidateViews(ctx)
	return nil
}

// List returns session detail rows with pagination, cached per filter.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionDetail, *models.Pagination, error) {
	key := s.listCacheKey(filter)
	if s.cache != nil {
		var cached SessionListResult
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Sessions, cached.Pagination, nil
		}
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, SessionListResult{Sessions: sessions, Pagination: pagination}, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache session list", zap.Error(err))
		}
	}
	return sessions, pagination, nil
}

// Get returns a session with batch context, cached by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionDetail, error) {
	key := fmt.Sprintf(sessionDetailKeyForID, id)
	if s.cache != nil {
		var cached models.SessionDetail
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	detail, err := s.sessions.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, detail, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache session detail", zap.Error(err))
		}
	}
	return detail, nil
}

// Roster returns the batch roster for a session.
func (s *SessionService) Roster(ctx context.Context, sessionID string) ([]models.NominationDetail, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	roster, err := s.roster.ListByBatch(ctx, session.NominationBatchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// ExportRoster renders a session's roster as CSV or PDF.
func (s *SessionService) ExportRoster(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	roster, err := s.roster.ListByBatch(ctx, session.NominationBatchID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{
		Headers: []string{"Employee ID", "Name", "Approval", "Source"},
	}
	for _, entry := range roster {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Employee ID": entry.EmpID,
			"Name":        entry.EmployeeName,
			"Approval":    string(entry.ManagerApprovalStatus),
			"Source":      entry.Source,
		})
	}

	switch strings.ToLower(format) {
	case "pdf":
		data, err := s.pdf.Render(dataset, fmt.Sprintf("%s roster", session.ProgramName))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return data, fmt.Sprintf("roster-%s.pdf", sessionID), nil
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return data, fmt.Sprintf("roster-%s.csv", sessionID), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *SessionService) listCacheKey(filter models.SessionFilter) string {
	return fmt.Sprintf("%sp%d:s%d:%s:%s:%s:%s:%s",
		sessionListKeyPrefix,
		filter.Page, filter.PageSize,
		strings.ToLower(filter.ProgramName), strings.ToLower(filter.TrainerName),
		filter.Status, filter.SortBy, filter.SortOrder)
}

func (s *SessionService) invalidateViews(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCachePattern); err != nil {
		s.logger.Warn("failed to invalidate session views", zap.Error(err))
	}
}
