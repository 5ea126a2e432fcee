package dto

import "github.com/noah-isme/sma-beasiswa-api/internal/models"

// ReviewDocumentRequest captures an admin review decision for an upload.
type ReviewDocumentRequest struct {
	Status          models.DocumentStatus `json:"status"`
	RejectionReason string                `json:"rejection_reason"`
}

// DocumentUploadResponse returns the stored upload plus a signed download URL.
type DocumentUploadResponse struct {
	models.DocumentUpload
	DownloadToken string `json:"download_token,omitempty"`
}
