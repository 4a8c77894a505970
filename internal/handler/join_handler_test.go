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
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/traincore/tnms-api/internal/models"
	"github.com/traincore/tnms-api/internal/service"
)

type fakeEmployees struct {
	employees map[string]models.Employee
}

func (f *fakeEmployees) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := f.employees[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEmployees) Upsert(ctx context.Context, employee *models.Employee) error {
	if f.employees == nil {
		f.employees = make(map[string]models.Employee)
	}
	f.employees[employee.ID] = *employee
	return nil
}

type fakeEnrollments struct {
	enrolled map[string]bool
	created  *models.Nomination
}

func (f *fakeEnrollments) ExistsInBatch(ctx context.Context, empID, batchID string) (bool, error) {
	return f.enrolled[empID+":"+batchID], nil
}

func (f *fakeEnrollments) Create(ctx context.Context, nomination *models.Nomination) error {
	nomination.ID = "nom-new"
	f.created = nomination
	return nil
}

type fakeSessionByBatch struct{}

func (f *fakeSessionByBatch) FindByBatchID(ctx context.Context, batchID string) (*models.TrainingSession, error) {
	return nil, sql.ErrNoRows
}

func newJoinHandlerFixture(employees *fakeEmployees, enrollments *fakeEnrollments) *JoinHandler {
	batches := &fakeBatches{statuses: map[string]models.BatchStatus{"b1": models.BatchStatusForming}}
	programs := &fakePrograms{programs: map[string]models.Program{"p1": {ID: "p1", Name: "Advanced Leadership"}}}
	svc := service.NewJoinService(employees, enrollments, batches, programs, &fakeSessionByBatch{}, nil, nil, validator.New(), zap.NewNop())
	return NewJoinHandler(svc)
}

func joinRequest(t *testing.T, w *httptest.ResponseRecorder, path string, payload interface{}, batchID string) *gin.Context {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "batchId", Value: batchID}}
	return c
}

func TestJoinHandlerJoin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employees := &fakeEmployees{employees: map[string]models.Employee{"E100": {ID: "E100", Name: "Ivy Chen", Email: "ivy.chen@corp.example", Department: "Engineering"}}}
	enrollments := &fakeEnrollments{enrolled: map[string]bool{}}
	handler := newJoinHandlerFixture(employees, enrollments)

	w := httptest.NewRecorder()
	c := joinRequest(t, w, "/join/b1", JoinRequest{EmpID: "E100"}, "b1")

	handler.Join(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Ivy Chen")
	assert.Contains(t, w.Body.String(), "Advanced Leadership")
	require.NotNil(t, enrollments.created)
	assert.Equal(t, models.NominationSourceQR, enrollments.created.Source)
}

func TestJoinHandlerJoinUnknownEmployee(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJoinHandlerFixture(&fakeEmployees{}, &fakeEnrollments{enrolled: map[string]bool{}})

	w := httptest.NewRecorder()
	c := joinRequest(t, w, "/join/b1", JoinRequest{EmpID: "E999"}, "b1")

	handler.Join(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "EMPLOYEE_NOT_FOUND")
}

func TestJoinHandlerJoinDuplicate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employees := &fakeEmployees{employees: map[string]models.Employee{"E100": {ID: "E100", Name: "Ivy Chen"}}}
	enrollments := &fakeEnrollments{enrolled: map[string]bool{"E100:b1": true}}
	handler := newJoinHandlerFixture(employees, enrollments)

	w := httptest.NewRecorder()
	c := joinRequest(t, w, "/join/b1", JoinRequest{EmpID: "E100"}, "b1")

	handler.Join(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_ENROLLED")
}

func TestJoinHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	employees := &fakeEmployees{}
	enrollments := &fakeEnrollments{enrolled: map[string]bool{}}
	handler := newJoinHandlerFixture(employees, enrollments)

	w := httptest.NewRecorder()
	c := joinRequest(t, w, "/join/b1/register", service.RegisterRequest{
		EmpID:      "E200",
		Name:       "Omar Haddad",
		Email:      "omar.haddad@corp.example",
		Department: "Finance",
	}, "b1")

	handler.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, enrollments.created)
	assert.Equal(t, models.NominationSourceQRJIT, enrollments.created.Source)
	_, registered := employees.employees["E200"]
	assert.True(t, registered)
}

func TestJoinHandlerRegisterMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newJoinHandlerFixture(&fakeEmployees{}, &fakeEnrollments{enrolled: map[string]bool{}})

	w := httptest.NewRecorder()
	c := joinRequest(t, w, "/join/b1/register", service.RegisterRequest{EmpID: "E200"}, "b1")

	handler.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
