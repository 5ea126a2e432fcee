package dto

import "github.com/noah-isme/sma-beasiswa-api/internal/models"

// CreateApplicationRequest starts a draft application for a program.
type CreateApplicationRequest struct {
	ProgramID string `json:"program_id" validate:"required"`
}

// UpdateApplicationStatusRequest captures an admin status decision.
type UpdateApplicationStatusRequest struct {
	Status     models.ApplicationStatus `json:"status"`
	AdminNotes string                   `json:"admin_notes"`
}

// ApplicationQuery mirrors supported listing filters.
type ApplicationQuery struct {
	StudentID string
	ProgramID string
	Status    models.ApplicationStatus
	Page      int
	PageSize  int
}
