package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/pkg/config"
	"github.com/traincore/tnms-api/pkg/jobs"
	"github.com/traincore/tnms-api/pkg/mailer"
)

// ApprovalRequest is the payload for a manager approval notification.
type ApprovalRequest struct {
	ManagerEmail string
	ManagerName  string
	EmployeeName string
	ProgramName  string
	StartDate    time.Time
	EndDate      time.Time
}

// NotificationService dispatches manager approval emails through a
// background queue. Dispatch never blocks the mutation that triggered it,
// and delivery failures are logged, not surfaced.
type NotificationService struct {
	queue   *jobs.Queue
	mail    mailer.Mailer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService wires the mailer behind a job queue.
func NewNotificationService(mail mailer.Mailer, metrics *MetricsService, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{mail: mail, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// RequestApproval enqueues one approval notification. Errors are swallowed:
// the nomination mutation already succeeded by the time this runs.
func (s *NotificationService) RequestApproval(ctx context.Context, req ApprovalRequest) {
	if req.ManagerEmail == "" {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "approval_request",
		Payload: req,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue approval notification",
			zap.String("manager_email", req.ManagerEmail),
			zap.String("program", req.ProgramName),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(ApprovalRequest)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	msg := mailer.Message{
		To:       req.ManagerEmail,
		ToName:   req.ManagerName,
		Subject:  fmt.Sprintf("Training approval required: %s", req.ProgramName),
		HTMLBody: renderApprovalBody(req),
	}
	if err := s.mail.Send(msg); err != nil {
		s.metrics.RecordNotification(false)
		s.logger.Warn("approval notification delivery failed",
			zap.String("manager_email", req.ManagerEmail),
			zap.String("employee", req.EmployeeName),
			zap.Error(err))
		return err
	}
	s.metrics.RecordNotification(true)
	return nil
}

func renderApprovalBody(req ApprovalRequest) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p>
<p><strong>%s</strong> has been nominated for the training program <strong>%s</strong>,
scheduled from %s to %s.</p>
<p>Please review and approve or reject this nomination in the training portal.</p>`,
		req.ManagerName,
		req.EmployeeName,
		req.ProgramName,
		req.StartDate.Format("02 Jan 2006"),
		req.EndDate.Format("02 Jan 2006"),
	)
}
