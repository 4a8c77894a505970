package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
)

type nominationStore interface {
	FindWithBatchStatus(ctx context.Context, id string) (*models.NominationWithBatch, error)
	FindDetailByID(ctx context.Context, id string) (*models.NominationDetail, error)
	AttachToBatch(ctx context.Context, id, batchID string) error
	DetachFromBatch(ctx context.Context, id string) error
	List(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, int, error)
}

type batchStatusReader interface {
	GetStatus(ctx context.Context, id string) (models.BatchStatus, error)
}

type sessionByBatch interface {
	FindByBatchID(ctx context.Context, batchID string) (*models.TrainingSession, error)
}

type approvalNotifier interface {
	RequestApproval(ctx context.Context, req ApprovalRequest)
}

// AddResult reports the per-nomination outcome of a bulk batch add. Each
// nomination is attached independently; one failure never rolls back the
// others.
type AddResult struct {
	Added  []string          `json:"added"`
	Failed map[string]string `json:"failed,omitempty"`
}

// NominationService manages batch membership of nominations.
type NominationService struct {
	nominations nominationStore
	batches     batchStatusReader
	sessions    sessionByBatch
	notifier    approvalNotifier
	cache       viewCache
	logger      *zap.Logger
}

// NewNominationService constructs NominationService.
func NewNominationService(nominations nominationStore, batches batchStatusReader, sessions sessionByBatch, notifier approvalNotifier, cache viewCache, logger *zap.Logger) *NominationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NominationService{
		nominations: nominations,
		batches:     batches,
		sessions:    sessions,
		notifier:    notifier,
		cache:       cache,
		logger:      logger,
	}
}

// AddToBatch attaches nominations to a FORMING batch. Attaching resets each
// nomination's approval state: approval belongs to a concrete scheduled
// session, and the batch it joins has not been scheduled yet.
func (s *NominationService) AddToBatch(ctx context.Context, batchID string, nominationIDs []string) (*AddResult, error) {
	if len(nominationIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no nominations supplied")
	}

	status, err := s.batches.GetStatus(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read batch status")
	}
	if status.Locked() {
		return nil, appErrors.Clone(appErrors.ErrBatchLocked, "")
	}

	result := &AddResult{}
	for _, id := range nominationIDs {
		if err := s.nominations.AttachToBatch(ctx, id, batchID); err != nil {
			s.logger.Warn("failed to attach nomination",
				zap.String("nomination_id", id),
				zap.String("batch_id", batchID),
				zap.Error(err))
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			if errors.Is(err, sql.ErrNoRows) {
				result.Failed[id] = "nomination not found"
			} else {
				result.Failed[id] = "failed to attach"
			}
			continue
		}
		result.Added = append(result.Added, id)
		s.notifyManager(ctx, id, batchID)
	}

	if len(result.Added) > 0 {
		s.invalidate(ctx)
	}
	return result, nil
}

// RemoveFromBatch detaches a nomination from its batch, returning it to the
// waitlist with every batch-scoped field cleared. Members of SCHEDULED or
// COMPLETED batches cannot be removed. A nomination with no batch is still
// reset: it may carry a stale rejection from an earlier batch, and this is
// the operation that makes it eligible again.
func (s *NominationService) RemoveFromBatch(ctx context.Context, nominationID string) error {
	nom, err := s.nominations.FindWithBatchStatus(ctx, nominationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "nomination not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nomination")
	}
	if nom.BatchStatus != nil && nom.BatchStatus.Locked() {
		return appErrors.Clone(appErrors.ErrBatchLocked, "")
	}

	if err := s.nominations.DetachFromBatch(ctx, nominationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove nomination from batch")
	}

	s.invalidate(ctx)
	return nil
}

// Get returns a nomination with employee and program context.
func (s *NominationService) Get(ctx context.Context, id string) (*models.NominationDetail, error) {
	detail, err := s.nominations.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "nomination not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nomination")
	}
	return detail, nil
}

// List returns nominations matching the filter with pagination.
func (s *NominationService) List(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, *models.Pagination, error) {
	nominations, total, err := s.nominations.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list nominations")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return nominations, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListWaitlist returns nominations not attached to any batch.
func (s *NominationService) ListWaitlist(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, *models.Pagination, error) {
	filter.Unbatched = true
	return s.List(ctx, filter)
}

// notifyManager queues a manager approval email for a freshly attached
// nomination. Notification failures never affect the attach outcome.
func (s *NominationService) notifyManager(ctx context.Context, nominationID, batchID string) {
	if s.notifier == nil {
		return
	}
	detail, err := s.nominations.FindDetailByID(ctx, nominationID)
	if err != nil {
		s.logger.Warn("skipping approval notification: failed to load nomination detail",
			zap.String("nomination_id", nominationID), zap.Error(err))
		return
	}
	if detail.ManagerEmail == nil || *detail.ManagerEmail == "" {
		s.logger.Warn("skipping approval notification: nominee has no manager on record",
			zap.String("nomination_id", nominationID))
		return
	}

	// The email quotes the session dates, so a batch without a bound
	// session sends nothing rather than zero dates.
	session, err := s.sessions.FindByBatchID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("skipping approval notification: batch has no scheduled session",
				zap.String("batch_id", batchID))
		} else {
			s.logger.Warn("skipping approval notification: failed to load session",
				zap.String("batch_id", batchID), zap.Error(err))
		}
		return
	}

	managerName := ""
	if detail.ManagerName != nil {
		managerName = *detail.ManagerName
	}
	s.notifier.RequestApproval(ctx, ApprovalRequest{
		ManagerEmail: *detail.ManagerEmail,
		ManagerName:  managerName,
		EmployeeName: detail.EmployeeName,
		ProgramName:  detail.ProgramName,
		StartDate:    session.StartDate,
		EndDate:      session.EndDate,
	})
}

func (s *NominationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCachePattern); err != nil {
		s.logger.Warn("failed to invalidate session views", zap.Error(err))
	}
}
