package models

import "time"

// DisbursementStatus captures the payout processing states.
type DisbursementStatus string

const (
	DisbursementStatusPending    DisbursementStatus = "pending"
	DisbursementStatusProcessing DisbursementStatus = "processing"
	DisbursementStatusProcessed  DisbursementStatus = "processed"
	DisbursementStatusCancelled  DisbursementStatus = "cancelled"
)

// DisbursementStatuses lists the full closed vocabulary.
var DisbursementStatuses = []DisbursementStatus{
	DisbursementStatusPending,
	DisbursementStatusProcessing,
	DisbursementStatusProcessed,
	DisbursementStatusCancelled,
}

// Valid reports whether the status belongs to the disbursement vocabulary.
func (s DisbursementStatus) Valid() bool {
	for _, known := range DisbursementStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label renders the status for human-facing notifications.
func (s DisbursementStatus) Label() string {
	return humanizeStatus(string(s))
}

// Disbursement represents a scholarship payout against an application.
type Disbursement struct {
	ID               string             `db:"id" json:"id"`
	ApplicationID    string             `db:"application_id" json:"application_id"`
	Amount           float64            `db:"amount" json:"amount"`
	PaymentMethod    string             `db:"payment_method" json:"payment_method"`
	ReferenceNumber  string             `db:"reference_number" json:"reference_number"`
	DisbursementDate time.Time          `db:"disbursement_date" json:"disbursement_date"`
	Status           DisbursementStatus `db:"status" json:"status"`
	Notes            *string            `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// DisbursementExportRow flattens a disbursement with student and program
// context for report files.
type DisbursementExportRow struct {
	ID               string             `db:"id"`
	Amount           float64            `db:"amount"`
	PaymentMethod    string             `db:"payment_method"`
	ReferenceNumber  string             `db:"reference_number"`
	DisbursementDate time.Time          `db:"disbursement_date"`
	Status           DisbursementStatus `db:"status"`
	StudentName      string             `db:"student_name"`
	StudentNIS       string             `db:"student_nis"`
	ProgramName      string             `db:"program_name"`
}

// DisbursementFilter constrains disbursement listing queries.
type DisbursementFilter struct {
	ApplicationID string
	ProgramID     string
	Status        DisbursementStatus
	Page          int
	PageSize      int
}
