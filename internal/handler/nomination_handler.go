package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/traincore/tnms-api/internal/models"
	"github.com/traincore/tnms-api/internal/service"
	appErrors "github.com/traincore/tnms-api/pkg/errors"
	"github.com/traincore/tnms-api/pkg/response"
)

// NominationHandler exposes nomination and batch membership endpoints.
type NominationHandler struct {
	nominations *service.NominationService
}

// NewNominationHandler constructs NominationHandler.
func NewNominationHandler(nominations *service.NominationService) *NominationHandler {
	return &NominationHandler{nominations: nominations}
}

// AddToBatchRequest carries the nominations to attach.
type AddToBatchRequest struct {
	NominationIDs []string `json:"nomination_ids" binding:"required"`
}

// List godoc
// @Summary List nominations
// @Tags Nominations
// @Produce json
// @Param programId query string false "Filter by program"
// @Param status query string false "Filter by nomination status"
// @Param approval query string false "Filter by manager approval status"
// @Param unbatched query bool false "Only nominations outside any batch"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /nominations [get]
func (h *NominationHandler) List(c *gin.Context) {
	var filter models.NominationFilter
	filter.ProgramID = c.Query("programId")
	filter.Status = models.NominationStatus(strings.ToUpper(c.Query("status")))
	filter.ApprovalStatus = models.ApprovalStatus(strings.ToUpper(c.Query("approval")))
	filter.Unbatched = c.Query("unbatched") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	nominations, pagination, err := h.nominations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nominations, pagination)
}

// Pending godoc
// @Summary List the nomination waitlist
// @Description Nominations not attached to any batch, for the bulk-add picker.
// @Tags Nominations
// @Produce json
// @Param programId query string false "Filter by program"
// @Param approval query string false "Filter by manager approval status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /nominations/pending [get]
func (h *NominationHandler) Pending(c *gin.Context) {
	var filter models.NominationFilter
	filter.ProgramID = c.Query("programId")
	filter.ApprovalStatus = models.ApprovalStatus(strings.ToUpper(c.Query("approval")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	nominations, pagination, err := h.nominations.ListWaitlist(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nominations, pagination)
}

// Get godoc
// @Summary Get a nomination
// @Tags Nominations
// @Produce json
// @Param id path string true "Nomination ID"
// @Success 200 {object} response.Envelope
// @Router /nominations/{id} [get]
func (h *NominationHandler) Get(c *gin.Context) {
	nomination, err := h.nominations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nomination, nil)
}

// AddToBatch godoc
// @Summary Add nominations to a batch
// @Tags Nominations
// @Accept json
// @Produce json
// @Param id path string true "Batch ID"
// @Param payload body AddToBatchRequest true "Nominations to attach"
// @Success 200 {object} response.Envelope
// @Router /batches/{id}/nominations [post]
func (h *NominationHandler) AddToBatch(c *gin.Context) {
	var req AddToBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.nominations.AddToBatch(c.Request.Context(), c.Param("id"), req.NominationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveFromBatch godoc
// @Summary Remove a nomination from its batch
// @Tags Nominations
// @Produce json
// @Param id path string true "Nomination ID"
// @Success 204 "No Content"
// @Router /nominations/{id}/batch [delete]
func (h *NominationHandler) RemoveFromBatch(c *gin.Context) {
	if err := h.nominations.RemoveFromBatch(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
