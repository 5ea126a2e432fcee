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

// ServiceReportHandler exposes community service reporting endpoints.
type ServiceReportHandler struct {
	reports *service.ServiceReportService
}

// NewServiceReportHandler constructs ServiceReportHandler.
func NewServiceReportHandler(reports *service.ServiceReportService) *ServiceReportHandler {
	return &ServiceReportHandler{reports: reports}
}

// Submit godoc
// @Summary Submit community service days
// @Tags ServiceReports
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.SubmitServiceReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/{id}/service-reports [post]
func (h *ServiceReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitServiceReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Submit(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Progress godoc
// @Summary Get service quota progress for an application
// @Tags ServiceReports
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /applications/{id}/service-progress [get]
func (h *ServiceReportHandler) Progress(c *gin.Context) {
	progress, err := h.reports.Progress(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// List godoc
// @Summary List service reports
// @Tags ServiceReports
// @Produce json
// @Param applicationId query string false "Filter by application"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /service-reports [get]
func (h *ServiceReportHandler) List(c *gin.Context) {
	var filter models.ServiceReportFilter
	filter.ApplicationID = c.Query("applicationId")
	filter.Status = models.ServiceReportStatus(c.Query("status"))
	filter.Page, filter.PageSize = parsePagination(c)

	reports, total, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, newPagination(filter.Page, filter.PageSize, total))
}

// Review godoc
// @Summary Review a service report
// @Description Admin decision; rejections subtract their days from the quota
// @Tags ServiceReports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ReviewServiceReportRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /service-reports/{id}/review [patch]
func (h *ServiceReportHandler) Review(c *gin.Context) {
	var req dto.ReviewServiceReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Review(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// BulkReview godoc
// @Summary Review several service reports with one decision
// @Description Items are processed independently; the response carries per-item results
// @Tags ServiceReports
// @Accept json
// @Produce json
// @Param payload body dto.BulkReviewServiceReportsRequest true "Bulk review payload"
// @Success 200 {object} response.Envelope
// @Router /service-reports/bulk-review [post]
func (h *ServiceReportHandler) BulkReview(c *gin.Context) {
	var req dto.BulkReviewServiceReportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.reports.BulkReview(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
