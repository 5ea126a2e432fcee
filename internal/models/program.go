package models

import "time"

// ScholarshipProgram defines a funding program students may apply to.
type ScholarshipProgram struct {
	ID                   string     `db:"id" json:"id"`
	Name                 string     `db:"name" json:"name"`
	Description          string     `db:"description" json:"description"`
	TotalBudget          float64    `db:"total_budget" json:"total_budget"`
	AwardAmount          float64    `db:"award_amount" json:"award_amount"`
	EligibleSchoolType   SchoolType `db:"eligible_school_type" json:"eligible_school_type"`
	MinGPA               float64    `db:"min_gpa" json:"min_gpa"`
	MinUnits             int        `db:"min_units" json:"min_units"`
	CommunityServiceDays int        `db:"community_service_days" json:"community_service_days"`
	ApplicationDeadline  time.Time  `db:"application_deadline" json:"application_deadline"`
	Active               bool       `db:"active" json:"active"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// ProgramFilter constrains program listing queries.
type ProgramFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
