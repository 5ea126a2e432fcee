package models

import "time"

// DocumentStatus captures review states for uploaded documents.
type DocumentStatus string

const (
	DocumentStatusPending            DocumentStatus = "pending"
	DocumentStatusApproved           DocumentStatus = "approved"
	DocumentStatusRejectedInvalid    DocumentStatus = "rejected_invalid"
	DocumentStatusRejectedIncomplete DocumentStatus = "rejected_incomplete"
	DocumentStatusRejectedFormat     DocumentStatus = "rejected_incorrect_format"
	DocumentStatusRejectedUnreadable DocumentStatus = "rejected_unreadable"
	DocumentStatusRejectedOther      DocumentStatus = "rejected_other"
)

// DocumentStatuses lists the full closed vocabulary.
var DocumentStatuses = []DocumentStatus{
	DocumentStatusPending,
	DocumentStatusApproved,
	DocumentStatusRejectedInvalid,
	DocumentStatusRejectedIncomplete,
	DocumentStatusRejectedFormat,
	DocumentStatusRejectedUnreadable,
	DocumentStatusRejectedOther,
}

// Valid reports whether the status belongs to the document vocabulary.
func (s DocumentStatus) Valid() bool {
	for _, known := range DocumentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsRejection reports whether the status denotes a rejection variant.
func (s DocumentStatus) IsRejection() bool {
	switch s {
	case DocumentStatusRejectedInvalid,
		DocumentStatusRejectedIncomplete,
		DocumentStatusRejectedFormat,
		DocumentStatusRejectedUnreadable,
		DocumentStatusRejectedOther:
		return true
	}
	return false
}

// Label renders the status for human-facing notifications.
func (s DocumentStatus) Label() string {
	return humanizeStatus(string(s))
}

// DocumentRequirement names a document a program requires per application.
type DocumentRequirement struct {
	ID          string    `db:"id" json:"id"`
	ProgramID   string    `db:"program_id" json:"program_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Mandatory   bool      `db:"mandatory" json:"mandatory"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// DocumentUpload represents a file a student submitted for a requirement.
type DocumentUpload struct {
	ID              string         `db:"id" json:"id"`
	ApplicationID   string         `db:"application_id" json:"application_id"`
	RequirementID   string         `db:"requirement_id" json:"requirement_id"`
	FileName        string         `db:"file_name" json:"file_name"`
	FilePath        string         `db:"file_path" json:"file_path"`
	MIMEType        string         `db:"mime_type" json:"mime_type"`
	SizeBytes       int64          `db:"size_bytes" json:"size_bytes"`
	Status          DocumentStatus `db:"status" json:"status"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason,omitempty"`
	UploadedAt      time.Time      `db:"uploaded_at" json:"uploaded_at"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// DocumentUploadDetail enriches an upload with its requirement name.
type DocumentUploadDetail struct {
	DocumentUpload
	RequirementName string `db:"requirement_name" json:"requirement_name"`
}
