package dto

import (
	"time"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

// CreateProgramRequest registers a new scholarship program.
type CreateProgramRequest struct {
	Name                 string            `json:"name" validate:"required"`
	Description          string            `json:"description"`
	TotalBudget          float64           `json:"total_budget" validate:"required,gt=0"`
	AwardAmount          float64           `json:"award_amount" validate:"required,gt=0"`
	EligibleSchoolType   models.SchoolType `json:"eligible_school_type" validate:"required"`
	MinGPA               float64           `json:"min_gpa" validate:"gte=0,lte=4"`
	MinUnits             int               `json:"min_units" validate:"gte=0"`
	CommunityServiceDays int               `json:"community_service_days" validate:"gte=0"`
	ApplicationDeadline  time.Time         `json:"application_deadline" validate:"required"`
}

// UpdateProgramRequest modifies mutable program fields.
type UpdateProgramRequest struct {
	Name                *string    `json:"name"`
	Description         *string    `json:"description"`
	TotalBudget         *float64   `json:"total_budget"`
	AwardAmount         *float64   `json:"award_amount"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	Active              *bool      `json:"active"`
}

// CreateRequirementRequest declares a document requirement on a program.
type CreateRequirementRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Mandatory   bool   `json:"mandatory"`
}

// ProgramResponse returns a program with its document checklist.
type ProgramResponse struct {
	models.ScholarshipProgram
	Requirements []models.DocumentRequirement `json:"requirements"`
}
