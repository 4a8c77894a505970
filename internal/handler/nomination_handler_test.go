package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	"github.com/traincore/tnms-api/internal/service"
)

type fakeNominations struct {
	nominations map[string]models.NominationWithBatch
	attached    map[string]string
	detached    []string
}

func (f *fakeNominations) FindWithBatchStatus(ctx context.Context, id string) (*models.NominationWithBatch, error) {
	if n, ok := f.nominations[id]; ok {
		return &n, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNominations) FindDetailByID(ctx context.Context, id string) (*models.NominationDetail, error) {
	if n, ok := f.nominations[id]; ok {
		return &models.NominationDetail{Nomination: n.Nomination, EmployeeName: "Ivy Chen", ProgramName: "Advanced Leadership"}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeNominations) AttachToBatch(ctx context.Context, id, batchID string) error {
	n, ok := f.nominations[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.BatchID = &batchID
	n.Status = models.NominationStatusBatched
	f.nominations[id] = n
	if f.attached == nil {
		f.attached = make(map[string]string)
	}
	f.attached[id] = batchID
	return nil
}

func (f *fakeNominations) DetachFromBatch(ctx context.Context, id string) error {
	n, ok := f.nominations[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.BatchID = nil
	n.Status = models.NominationStatusPending
	f.nominations[id] = n
	f.detached = append(f.detached, id)
	return nil
}

func (f *fakeNominations) List(ctx context.Context, filter models.NominationFilter) ([]models.NominationDetail, int, error) {
	var list []models.NominationDetail
	for _, n := range f.nominations {
		list = append(list, models.NominationDetail{Nomination: n.Nomination})
	}
	return list, len(list), nil
}

func newNominationHandlerFixture(store *fakeNominations, batches *fakeBatches) *NominationHandler {
	svc := service.NewNominationService(store, batches, &fakeSessionByBatch{}, nil, nil, zap.NewNop())
	return NewNominationHandler(svc)
}

func TestNominationHandlerAddToBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeNominations{nominations: map[string]models.NominationWithBatch{
		"n1": {Nomination: models.Nomination{ID: "n1", Status: models.NominationStatusPending}},
	}}
	batches := &fakeBatches{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	handler := newNominationHandlerFixture(store, batches)

	body, _ := json.Marshal(AddToBatchRequest{NominationIDs: []string{"n1"}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/batches/b1/nominations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.AddToBatch(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b1", store.attached["n1"])
}

func TestNominationHandlerAddToLockedBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeNominations{nominations: map[string]models.NominationWithBatch{
		"n1": {Nomination: models.Nomination{ID: "n1", Status: models.NominationStatusPending}},
	}}
	batches := &fakeBatches{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusScheduled}}
	handler := newNominationHandlerFixture(store, batches)

	body, _ := json.Marshal(AddToBatchRequest{NominationIDs: []string{"n1"}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/batches/b1/nominations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "b1"}}

	handler.AddToBatch(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "BATCH_LOCKED")
	assert.Empty(t, store.attached)
}

func TestNominationHandlerRemoveFromBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	batchID := "b1"
	forming := models.BatchStatusForming
	store := &fakeNominations{nominations: map[string]models.NominationWithBatch{
		"n1": {
			Nomination:  models.Nomination{ID: "n1", BatchID: &batchID, Status: models.NominationStatusBatched},
			BatchStatus: &forming,
		},
	}}
	handler := newNominationHandlerFixture(store, &fakeBatches{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/nominations/n1/batch", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "n1"}}

	handler.RemoveFromBatch(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, store.detached, "n1")
}

func TestNominationHandlerRemoveFromScheduledBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	batchID := "b1"
	scheduled := models.BatchStatusScheduled
	store := &fakeNominations{nominations: map[string]models.NominationWithBatch{
		"n1": {
			Nomination:  models.Nomination{ID: "n1", BatchID: &batchID, Status: models.NominationStatusBatched},
			BatchStatus: &scheduled,
		},
	}}
	handler := newNominationHandlerFixture(store, &fakeBatches{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/nominations/n1/batch", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "n1"}}

	handler.RemoveFromBatch(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.detached)
}
