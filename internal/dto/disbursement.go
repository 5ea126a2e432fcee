package dto

import (
	"time"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

// CreateDisbursementRequest creates a payout against an application.
type CreateDisbursementRequest struct {
	ApplicationID    string    `json:"application_id" validate:"required"`
	Amount           float64   `json:"amount" validate:"required,gt=0"`
	PaymentMethod    string    `json:"payment_method" validate:"required"`
	ReferenceNumber  string    `json:"reference_number"`
	DisbursementDate time.Time `json:"disbursement_date"`
	Notes            string    `json:"notes"`
}

// UpdateDisbursementStatusRequest moves a disbursement through processing.
type UpdateDisbursementStatusRequest struct {
	Status models.DisbursementStatus `json:"status"`
	Notes  string                    `json:"notes"`
}
