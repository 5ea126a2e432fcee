package models

import (
	"strings"
	"time"
)

// ApplicationStatus captures the linear scholarship application lifecycle.
type ApplicationStatus string

const (
	ApplicationStatusDraft                ApplicationStatus = "draft"
	ApplicationStatusSubmitted            ApplicationStatus = "submitted"
	ApplicationStatusDocumentsPending     ApplicationStatus = "documents_pending"
	ApplicationStatusDocumentsUnderReview ApplicationStatus = "documents_under_review"
	ApplicationStatusDocumentsApproved    ApplicationStatus = "documents_approved"
	ApplicationStatusDocumentsRejected    ApplicationStatus = "documents_rejected"
	ApplicationStatusEligibilityVerified  ApplicationStatus = "eligibility_verified"
	ApplicationStatusEnrolled             ApplicationStatus = "enrolled"
	ApplicationStatusServicePending       ApplicationStatus = "service_pending"
	ApplicationStatusServiceCompleted     ApplicationStatus = "service_completed"
	ApplicationStatusDisbursementPending  ApplicationStatus = "disbursement_pending"
	ApplicationStatusDisbursementDone     ApplicationStatus = "disbursement_processed"
	ApplicationStatusCompleted            ApplicationStatus = "completed"
	ApplicationStatusRejected             ApplicationStatus = "rejected"
)

// ApplicationStatuses lists the full closed vocabulary.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationStatusDraft,
	ApplicationStatusSubmitted,
	ApplicationStatusDocumentsPending,
	ApplicationStatusDocumentsUnderReview,
	ApplicationStatusDocumentsApproved,
	ApplicationStatusDocumentsRejected,
	ApplicationStatusEligibilityVerified,
	ApplicationStatusEnrolled,
	ApplicationStatusServicePending,
	ApplicationStatusServiceCompleted,
	ApplicationStatusDisbursementPending,
	ApplicationStatusDisbursementDone,
	ApplicationStatusCompleted,
	ApplicationStatusRejected,
}

// Valid reports whether the status belongs to the application vocabulary.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label renders the status for human-facing notifications: underscores
// replaced with spaces, each word title-cased.
func (s ApplicationStatus) Label() string {
	return humanizeStatus(string(s))
}

// ScholarshipApplication ties a student profile to a program over the
// application lifecycle.
type ScholarshipApplication struct {
	ID          string            `db:"id" json:"id"`
	StudentID   string            `db:"student_id" json:"student_id"`
	ProgramID   string            `db:"program_id" json:"program_id"`
	Status      ApplicationStatus `db:"status" json:"status"`
	AdminNotes  *string           `db:"admin_notes" json:"admin_notes,omitempty"`
	SubmittedAt *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail enriches an application with student and program context.
type ApplicationDetail struct {
	ScholarshipApplication
	StudentName string `db:"student_name" json:"student_name"`
	StudentNIS  string `db:"student_nis" json:"student_nis"`
	ProgramName string `db:"program_name" json:"program_name"`
}

// ApplicationFilter constrains application listing queries.
type ApplicationFilter struct {
	StudentID string
	ProgramID string
	Status    ApplicationStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

func humanizeStatus(raw string) string {
	words := strings.Split(raw, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
