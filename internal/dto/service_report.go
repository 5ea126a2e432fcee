package dto

import "github.com/noah-isme/sma-beasiswa-api/internal/models"

// SubmitServiceReportRequest records community service days for an application.
type SubmitServiceReportRequest struct {
	DaysCompleted int    `json:"days_completed" validate:"required,gt=0"`
	Description   string `json:"description" validate:"required"`
}

// ReviewServiceReportRequest captures an admin review decision for a report.
type ReviewServiceReportRequest struct {
	Status          models.ServiceReportStatus `json:"status"`
	RejectionReason string                     `json:"rejection_reason"`
	AdminNotes      string                     `json:"admin_notes"`
}

// BulkReviewServiceReportsRequest reviews several reports in one request.
type BulkReviewServiceReportsRequest struct {
	ReportIDs       []string                   `json:"report_ids" validate:"required,min=1"`
	Status          models.ServiceReportStatus `json:"status"`
	RejectionReason string                     `json:"rejection_reason"`
	AdminNotes      string                     `json:"admin_notes"`
}

// BulkReviewResult reports the per-item outcome of a bulk review.
type BulkReviewResult struct {
	ReportID string `json:"report_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// ServiceProgressResponse summarises quota progress for an application.
type ServiceProgressResponse struct {
	Quota         int `json:"quota"`
	DaysCompleted int `json:"days_completed"`
	RemainingDays int `json:"remaining_days"`
}
