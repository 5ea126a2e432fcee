package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/service"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
	"github.com/noah-isme/sma-beasiswa-api/pkg/response"
)

// DisbursementHandler exposes payout and export endpoints.
type DisbursementHandler struct {
	disbursements *service.DisbursementService
	exports       *service.ExportService
	metrics       *service.MetricsService
}

// NewDisbursementHandler constructs DisbursementHandler.
func NewDisbursementHandler(disbursements *service.DisbursementService, exports *service.ExportService, metrics *service.MetricsService) *DisbursementHandler {
	return &DisbursementHandler{disbursements: disbursements, exports: exports, metrics: metrics}
}

// Create godoc
// @Summary Create a disbursement
// @Description Records a pending payout against an eligible application
// @Tags Disbursements
// @Accept json
// @Produce json
// @Param payload body dto.CreateDisbursementRequest true "Disbursement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /disbursements [post]
func (h *DisbursementHandler) Create(c *gin.Context) {
	var req dto.CreateDisbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	d, err := h.disbursements.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, d)
}

// List godoc
// @Summary List disbursements
// @Tags Disbursements
// @Produce json
// @Param applicationId query string false "Filter by application"
// @Param programId query string false "Filter by program"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /disbursements [get]
func (h *DisbursementHandler) List(c *gin.Context) {
	var filter models.DisbursementFilter
	filter.ApplicationID = c.Query("applicationId")
	filter.ProgramID = c.Query("programId")
	filter.Status = models.DisbursementStatus(c.Query("status"))
	filter.Page, filter.PageSize = parsePagination(c)

	disbursements, total, err := h.disbursements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, disbursements, newPagination(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get disbursement detail
// @Tags Disbursements
// @Produce json
// @Param id path string true "Disbursement ID"
// @Success 200 {object} response.Envelope
// @Router /disbursements/{id} [get]
func (h *DisbursementHandler) Get(c *gin.Context) {
	d, err := h.disbursements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d, nil)
}

// UpdateStatus godoc
// @Summary Update disbursement status
// @Description Marking processed advances the parent application
// @Tags Disbursements
// @Accept json
// @Produce json
// @Param id path string true "Disbursement ID"
// @Param payload body dto.UpdateDisbursementStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /disbursements/{id}/status [patch]
func (h *DisbursementHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateDisbursementStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	d, err := h.disbursements.UpdateStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, d, nil)
}

// Export godoc
// @Summary Queue a disbursement export
// @Description Renders matching disbursements to CSV or PDF in the background
// @Tags Disbursements
// @Produce json
// @Param format query string true "Export format (csv or pdf)"
// @Param programId query string false "Filter by program"
// @Param status query string false "Filter by status"
// @Success 202 {object} response.Envelope
// @Router /disbursements/export [post]
func (h *DisbursementHandler) Export(c *gin.Context) {
	var filter models.DisbursementFilter
	filter.ProgramID = c.Query("programId")
	filter.Status = models.DisbursementStatus(c.Query("status"))

	format := c.DefaultQuery("format", "csv")
	job, err := h.exports.Request(c.Request.Context(), actorFromContext(c), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExportRequest(job.Format)
	response.JSON(c, http.StatusAccepted, job, nil)
}

// ExportStatus godoc
// @Summary Get export job status
// @Tags Disbursements
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /disbursements/export/{id} [get]
func (h *DisbursementHandler) ExportStatus(c *gin.Context) {
	job, err := h.exports.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description The token comes from the finished job descriptor
// @Tags Disbursements
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /disbursements/export/download [get]
func (h *DisbursementHandler) Download(c *gin.Context) {
	file, name, err := h.exports.Open(c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	path := file.Name()
	file.Close()
	c.FileAttachment(path, name)
}
