package models

import "time"

// ServiceReportStatus captures review states for community service reports.
type ServiceReportStatus string

const (
	ServiceReportStatusPendingReview      ServiceReportStatus = "pending_review"
	ServiceReportStatusApproved           ServiceReportStatus = "approved"
	ServiceReportStatusRejectedHours      ServiceReportStatus = "rejected_insufficient_hours"
	ServiceReportStatusRejectedIncomplete ServiceReportStatus = "rejected_incomplete_documentation"
	ServiceReportStatusRejectedOther      ServiceReportStatus = "rejected_other"
)

// ServiceReportStatuses lists the full closed vocabulary.
var ServiceReportStatuses = []ServiceReportStatus{
	ServiceReportStatusPendingReview,
	ServiceReportStatusApproved,
	ServiceReportStatusRejectedHours,
	ServiceReportStatusRejectedIncomplete,
	ServiceReportStatusRejectedOther,
}

// Valid reports whether the status belongs to the service report vocabulary.
func (s ServiceReportStatus) Valid() bool {
	for _, known := range ServiceReportStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsRejection reports whether the status denotes a rejection variant.
func (s ServiceReportStatus) IsRejection() bool {
	switch s {
	case ServiceReportStatusRejectedHours,
		ServiceReportStatusRejectedIncomplete,
		ServiceReportStatusRejectedOther:
		return true
	}
	return false
}

// Label renders the status for human-facing notifications.
func (s ServiceReportStatus) Label() string {
	return humanizeStatus(string(s))
}

// CommunityServiceReport records service days a student reports against the
// program quota.
type CommunityServiceReport struct {
	ID              string              `db:"id" json:"id"`
	ApplicationID   string              `db:"application_id" json:"application_id"`
	DaysCompleted   int                 `db:"days_completed" json:"days_completed"`
	Description     string              `db:"description" json:"description"`
	Status          ServiceReportStatus `db:"status" json:"status"`
	RejectionReason *string             `db:"rejection_reason" json:"rejection_reason,omitempty"`
	AdminNotes      *string             `db:"admin_notes" json:"admin_notes,omitempty"`
	SubmittedAt     time.Time           `db:"submitted_at" json:"submitted_at"`
	ReviewedAt      *time.Time          `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// ServiceReportFilter constrains report listing queries.
type ServiceReportFilter struct {
	ApplicationID string
	Status        ServiceReportStatus
	Page          int
	PageSize      int
}
