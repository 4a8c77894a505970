package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traincore/tnms-api/internal/service"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
	"github.com/traincore/tnms-api/pkg/response"
)

// JoinHandler exposes the public QR self-enrollment endpoints. These routes
// are unauthenticated: the QR poster in the training room is the credential.
type JoinHandler struct {
	join *service.JoinService
}

// NewJoinHandler constructs JoinHandler.
func NewJoinHandler(join *service.JoinService) *JoinHandler {
	return &JoinHandler{join: join}
}

// JoinRequest carries the employee id entered after scanning.
type JoinRequest struct {
	EmpID string `json:"emp_id" binding:"required"`
}

// Join godoc
// @Summary Self-enroll in a batch by employee ID
// @Tags Join
// @Accept json
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param payload body JoinRequest true "Employee ID"
// @Success 201 {object} response.Envelope
// @Router /join/{batchId} [post]
func (h *JoinHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.join.Join(c.Request.Context(), c.Param("batchId"), req.EmpID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Register godoc
// @Summary Register an unknown employee and enroll in one step
// @Tags Join
// @Accept json
// @Produce json
// @Param batchId path string true "Batch ID"
// @Param payload body service.RegisterRequest true "Employee details"
// @Success 201 {object} response.Envelope
// @Router /join/{batchId}/register [post]
func (h *JoinHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.join.RegisterAndJoin(c.Request.Context(), c.Param("batchId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
