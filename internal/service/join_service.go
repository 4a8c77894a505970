package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
)

const selfEnrollJustification = "Self-enrolled via QR code"

type employeeStore interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	Upsert(ctx context.Context, employee *models.Employee) error
}

type enrollmentStore interface {
	ExistsInBatch(ctx context.Context, empID, batchID string) (bool, error)
	Create(ctx context.Context, nomination *models.Nomination) error
}

type batchReader interface {
	FindByID(ctx context.Context, id string) (*models.NominationBatch, error)
}

type programByID interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// RegisterRequest carries the employee details captured by the QR
// registration form for staff unknown to the HR feed.
type RegisterRequest struct {
	EmpID        string `json:"emp_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Department   string `json:"department" validate:"required"`
	ManagerName  string `json:"manager_name"`
	ManagerEmail string `json:"manager_email" validate:"omitempty,email"`
}

// JoinResult is the confirmation shown to the employee after scanning.
type JoinResult struct {
	EmployeeName string `json:"employee_name"`
	ProgramName  string `json:"program_name"`
}

// JoinService handles QR self-enrollment into a batch.
type JoinService struct {
	employees   employeeStore
	nominations enrollmentStore
	batches     batchReader
	programs    programByID
	sessions    sessionByBatch
	notifier    approvalNotifier
	cache       viewCache
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewJoinService constructs JoinService.
func NewJoinService(employees employeeStore, nominations enrollmentStore, batches batchReader, programs programByID, sessions sessionByBatch, notifier approvalNotifier, cache viewCache, validate *validator.Validate, logger *zap.Logger) *JoinService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JoinService{
		employees:   employees,
		nominations: nominations,
		batches:     batches,
		programs:    programs,
		sessions:    sessions,
		notifier:    notifier,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Join enrolls a known employee into a batch via QR scan. An unknown
// employee id returns ErrEmployeeNotFound so the client can switch to the
// registration form instead of showing a failure.
func (s *JoinService) Join(ctx context.Context, batchID, empID string) (*JoinResult, error) {
	if empID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee id is required")
	}

	employee, err := s.employees.FindByID(ctx, empID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrEmployeeNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	return s.enroll(ctx, batchID, employee, models.NominationSourceQR)
}

// RegisterAndJoin registers an employee just-in-time and enrolls them in one
// step. Re-registering an existing id overwrites the HR-fed record with the
// submitted details.
func (s *JoinService) RegisterAndJoin(ctx context.Context, batchID string, req RegisterRequest) (*JoinResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	employee := &models.Employee{
		ID:         req.EmpID,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
	}
	if req.ManagerName != "" {
		employee.ManagerName = &req.ManagerName
	}
	if req.ManagerEmail != "" {
		employee.ManagerEmail = &req.ManagerEmail
	}

	if err := s.employees.Upsert(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register employee")
	}

	return s.enroll(ctx, batchID, employee, models.NominationSourceQRJIT)
}

func (s *JoinService) enroll(ctx context.Context, batchID string, employee *models.Employee, source string) (*JoinResult, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invalid batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	enrolled, err := s.nominations.ExistsInBatch(ctx, employee.ID, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	program, err := s.programs.FindByID(ctx, batch.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	nomination := &models.Nomination{
		EmpID:                 employee.ID,
		ProgramID:             batch.ProgramID,
		BatchID:               &batch.ID,
		Status:                models.NominationStatusBatched,
		ManagerApprovalStatus: models.ApprovalStatusPending,
		Source:                source,
		Justification:         selfEnrollJustification,
	}
	if err := s.nominations.Create(ctx, nomination); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	s.notifyManager(ctx, employee, program.Name, batchID)
	s.invalidate(ctx)

	return &JoinResult{EmployeeName: employee.Name, ProgramName: program.Name}, nil
}

func (s *JoinService) notifyManager(ctx context.Context, employee *models.Employee, programName, batchID string) {
	if s.notifier == nil {
		return
	}
	if employee.ManagerEmail == nil || *employee.ManagerEmail == "" {
		s.logger.Warn("skipping approval notification: employee has no manager on record",
			zap.String("emp_id", employee.ID))
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
	if employee.ManagerName != nil {
		managerName = *employee.ManagerName
	}
	s.notifier.RequestApproval(ctx, ApprovalRequest{
		ManagerEmail: *employee.ManagerEmail,
		ManagerName:  managerName,
		EmployeeName: employee.Name,
		ProgramName:  programName,
		StartDate:    session.StartDate,
		EndDate:      session.EndDate,
	})
}

func (s *JoinService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCachePattern); err != nil {
		s.logger.Warn("failed to invalidate session views", zap.Error(err))
	}
}
