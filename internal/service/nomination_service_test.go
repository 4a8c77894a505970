package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
)

type mockNominationStore struct {
	nominations map[string]models.NominationWithBatch
	attached    map[string]string
	detached    []string
}

func (m *mockNominationStore) FindWithBatchStatus(ctx context.Context, id string) (*models.NominationWithBatch, error) {
	if n, ok := m.nominations[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNominationStore) FindDetailByID(ctx context.Context, id string) (*models.NominationDetail, error) {
	if n, ok := m.nominations[id]; ok {
		email := "manager@corp.example"
		return &models.NominationDetail{
			Nomination:   n.Nomination,
			EmployeeName: "Ivy Chen",
			ProgramName:  "Advanced Leadership",
			ManagerEmail: &email,
		}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNominationStore) AttachToBatch(ctx context.Context, id, batchID string) error {
	n, ok := m.nominations[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.BatchID = &batchID
	n.Status = models.NominationStatusBatched
	n.ManagerApprovalStatus = models.ApprovalStatusPending
	n.ManagerRejectionReason = nil
	m.nominations[id] = n
	if m.attached == nil {
		m.attached = make(map[string]string)
	}
	m.attached[id] = batchID
	return nil
}

func (m *mockNominationStore) DetachFromBatch(ctx context.Context, id string) error {
	n, ok := m.nominations[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.BatchID = nil
	n.Status = models.NominationStatusPending
	n.ManagerApprovalStatus = models.ApprovalStatusPending
	n.ManagerRejectionReason = nil
	m.nominations[id] = n
	m.detached = append(m.detached, id)
	return nil
}

func (m *mockNominationStore) List(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, int, error) {
	var list []models.NominationDetail
	for _, n := range m.nominations {
		if filter.Unbatched && n.BatchID != nil {
			continue
		}
		list = append(list, models.NominationDetail{Nomination: n.Nomination})
	}
	return list, len(list), nil
}

type mockBatchStatus struct {
	statuses map[string]models.BatchStatus
}

func (m *mockBatchStatus) GetStatus(ctx context.Context, id string) (models.BatchStatus, error) {
	if s, ok := m.statuses[id]; ok {
		return s, nil
	}
	return "", sql.ErrNoRows
}

type mockSessionByBatch struct {
	sessions map[string]models.TrainingSession
}

func (m *mockSessionByBatch) FindByBatchID(ctx context.Context, batchID string) (*models.TrainingSession, error) {
	if s, ok := m.sessions[batchID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	requests []ApprovalRequest
}

func (m *mockNotifier) RequestApproval(ctx context.Context, req ApprovalRequest) {
	m.requests = append(m.requests, req)
}

func pendingNomination(id string) models.NominationWithBatch {
	return models.NominationWithBatch{Nomination: models.Nomination{
		ID:                    id,
		EmpID:                 "E100",
		ProgramID:             "p1",
		Status:                models.NominationStatusPending,
		ManagerApprovalStatus: models.ApprovalStatusPending,
		Source:                models.NominationSourceAdmin,
	}}
}

func batchedNomination(id, batchID string, status models.BatchStatus) models.NominationWithBatch {
	reason := "schedule conflict"
	n := models.NominationWithBatch{Nomination: models.Nomination{
		ID:                     id,
		EmpID:                  "E100",
		ProgramID:              "p1",
		BatchID:                &batchID,
		Status:                 models.NominationStatusBatched,
		ManagerApprovalStatus:  models.ApprovalStatusRejected,
		ManagerRejectionReason: &reason,
		Source:                 models.NominationSourceAdmin,
	}}
	n.BatchStatus = &status
	return n
}

func TestNominationServiceAddToBatch(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": pendingNomination("n1"), "n2": pendingNomination("n2")}}
	batches := &mockBatchStatus{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	sessions := &mockSessionByBatch{sessions: map[string]models.TrainingSession{"b1": {ID: "s1", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 2)}}}
	notifier := &mockNotifier{}
	cache := &mockViewCache{}
	svc := NewNominationService(store, batches, sessions, notifier, cache, zap.NewNop())

	result, err := svc.AddToBatch(context.Background(), "b1", []string{"n1", "n2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n1", "n2"}, result.Added)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "b1", store.attached["n1"])
	assert.Len(t, notifier.requests, 2)
	assert.Equal(t, "manager@corp.example", notifier.requests[0].ManagerEmail)
	assert.Contains(t, cache.invalidated, "sessions:*")
}

func TestNominationServiceAddToBatchLocked(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": pendingNomination("n1")}}
	batches := &mockBatchStatus{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusScheduled}}
	svc := NewNominationService(store, batches, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	_, err := svc.AddToBatch(context.Background(), "b1", []string{"n1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBatchLocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.attached)
}

func TestNominationServiceAddToBatchPartialFailure(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": pendingNomination("n1")}}
	batches := &mockBatchStatus{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	svc := NewNominationService(store, batches, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	result, err := svc.AddToBatch(context.Background(), "b1", []string{"n1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, result.Added)
	assert.Contains(t, result.Failed, "ghost")
}

func TestNominationServiceAddToBatchResetsApproval(t *testing.T) {
	nom := pendingNomination("n1")
	reason := "previously rejected"
	nom.ManagerApprovalStatus = models.ApprovalStatusRejected
	nom.ManagerRejectionReason = &reason
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": nom}}
	batches := &mockBatchStatus{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	svc := NewNominationService(store, batches, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	_, err := svc.AddToBatch(context.Background(), "b1", []string{"n1"})
	require.NoError(t, err)
	updated := store.nominations["n1"]
	assert.Equal(t, models.ApprovalStatusPending, updated.ManagerApprovalStatus)
	assert.Nil(t, updated.ManagerRejectionReason)
}

func TestNominationServiceAddToBatchWithoutSessionSkipsNotification(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": pendingNomination("n1")}}
	batches := &mockBatchStatus{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	notifier := &mockNotifier{}
	svc := NewNominationService(store, batches, &mockSessionByBatch{}, notifier, &mockViewCache{}, zap.NewNop())

	result, err := svc.AddToBatch(context.Background(), "b1", []string{"n1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, result.Added)
	assert.Empty(t, notifier.requests)
}

func TestNominationServiceRemoveFromBatch(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": batchedNomination("n1", "b1", models.BatchStatusForming)}}
	cache := &mockViewCache{}
	svc := NewNominationService(store, &mockBatchStatus{}, &mockSessionByBatch{}, &mockNotifier{}, cache, zap.NewNop())

	require.NoError(t, svc.RemoveFromBatch(context.Background(), "n1"))
	updated := store.nominations["n1"]
	assert.Nil(t, updated.BatchID)
	assert.Equal(t, models.NominationStatusPending, updated.Status)
	assert.Equal(t, models.ApprovalStatusPending, updated.ManagerApprovalStatus)
	assert.Nil(t, updated.ManagerRejectionReason)
	assert.Contains(t, cache.invalidated, "sessions:*")
}

func TestNominationServiceRemoveFromLockedBatch(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": batchedNomination("n1", "b1", models.BatchStatusScheduled)}}
	svc := NewNominationService(store, &mockBatchStatus{}, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	err := svc.RemoveFromBatch(context.Background(), "n1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBatchLocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.detached)
}

func TestNominationServiceRemoveUnbatchedResetsStaleRejection(t *testing.T) {
	nom := pendingNomination("n1")
	reason := "schedule conflict"
	nom.ManagerApprovalStatus = models.ApprovalStatusRejected
	nom.ManagerRejectionReason = &reason
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{"n1": nom}}
	svc := NewNominationService(store, &mockBatchStatus{}, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	require.NoError(t, svc.RemoveFromBatch(context.Background(), "n1"))
	updated := store.nominations["n1"]
	assert.Nil(t, updated.BatchID)
	assert.Equal(t, models.NominationStatusPending, updated.Status)
	assert.Equal(t, models.ApprovalStatusPending, updated.ManagerApprovalStatus)
	assert.Nil(t, updated.ManagerRejectionReason)
}

func TestNominationServiceListWaitlist(t *testing.T) {
	store := &mockNominationStore{nominations: map[string]models.NominationWithBatch{
		"n1": pendingNomination("n1"),
		"n2": batchedNomination("n2", "b1", models.BatchStatusForming),
	}}
	svc := NewNominationService(store, &mockBatchStatus{}, &mockSessionByBatch{}, &mockNotifier{}, &mockViewCache{}, zap.NewNop())

	list, pagination, err := svc.ListWaitlist(context.Background(), models.NominationFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "n1", list[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)
}
