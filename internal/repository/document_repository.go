package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

// DocumentRepository handles persistence of document uploads.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, application_id, requirement_id, file_name, file_path, mime_type, size_bytes, status, rejection_reason, uploaded_at, reviewed_at`

// CreateUpload persists a newly uploaded document in pending state. A
// re-upload for the same requirement replaces the previous file record.
func (r *DocumentRepository) CreateUpload(ctx context.Context, upload *models.DocumentUpload) error {
	if upload.ID == "" {
		upload.ID = uuid.NewString()
	}
	if upload.UploadedAt.IsZero() {
		upload.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_uploads (id, application_id, requirement_id, file_name, file_path, mime_type, size_bytes, status, rejection_reason, uploaded_at, reviewed_at)
        VALUES (:id, :application_id, :requirement_id, :file_name, :file_path, :mime_type, :size_bytes, :status, :rejection_reason, :uploaded_at, :reviewed_at)
        ON CONFLICT (application_id, requirement_id) DO UPDATE SET
            file_name = EXCLUDED.file_name,
            file_path = EXCLUDED.file_path,
            mime_type = EXCLUDED.mime_type,
            size_bytes = EXCLUDED.size_bytes,
            status = EXCLUDED.status,
            rejection_reason = NULL,
            uploaded_at = EXCLUDED.uploaded_at,
            reviewed_at = NULL`
	if _, err := r.db.NamedExecContext(ctx, query, upload); err != nil {
		return fmt.Errorf("create document upload: %w", err)
	}
	return nil
}

// FindByID returns an upload by its identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.DocumentUpload, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_uploads WHERE id = $1`, documentColumns)
	var upload models.DocumentUpload
	if err := r.db.GetContext(ctx, &upload, query, id); err != nil {
		return nil, err
	}
	return &upload, nil
}

// ListByApplication returns an application's uploads with requirement names.
func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationID string) ([]models.DocumentUploadDetail, error) {
	const query = `SELECT d.id, d.application_id, d.requirement_id, d.file_name, d.file_path, d.mime_type, d.size_bytes,
        d.status, d.rejection_reason, d.uploaded_at, d.reviewed_at, dr.name AS requirement_name
        FROM document_uploads d
        JOIN document_requirements dr ON dr.id = d.requirement_id
        WHERE d.application_id = $1
        ORDER BY dr.name ASC`
	var uploads []models.DocumentUploadDetail
	if err := r.db.SelectContext(ctx, &uploads, query, applicationID); err != nil {
		return nil, fmt.Errorf("list document uploads: %w", err)
	}
	return uploads, nil
}

// ListByApplicationTx reads the application's uploads inside the caller's
// transaction so the all-approved cascade sees the row it just changed.
func (r *DocumentRepository) ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.DocumentUpload, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_uploads WHERE application_id = $1`, documentColumns)
	var uploads []models.DocumentUpload
	if err := tx.SelectContext(ctx, &uploads, query, applicationID); err != nil {
		return nil, fmt.Errorf("list document uploads in tx: %w", err)
	}
	return uploads, nil
}

// GetForUpdateTx loads an upload inside the transaction and locks its row.
func (r *DocumentRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DocumentUpload, error) {
	query := fmt.Sprintf(`SELECT %s FROM document_uploads WHERE id = $1 FOR UPDATE`, documentColumns)
	var upload models.DocumentUpload
	if err := tx.GetContext(ctx, &upload, query, id); err != nil {
		return nil, err
	}
	return &upload, nil
}

// UpdateReviewTx writes the review outcome inside the transaction.
func (r *DocumentRepository) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, upload *models.DocumentUpload) error {
	const query = `UPDATE document_uploads SET status = :status, rejection_reason = :rejection_reason, reviewed_at = :reviewed_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, upload); err != nil {
		return fmt.Errorf("update document review: %w", err)
	}
	return nil
}

// CountPending counts uploads still waiting for review.
func (r *DocumentRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM document_uploads WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.DocumentStatusPending); err != nil {
		return 0, fmt.Errorf("count pending documents: %w", err)
	}
	return count, nil
}

// CountMandatoryRequirements counts the mandatory requirements a program
// declares.
func (r *DocumentRepository) CountMandatoryRequirements(ctx context.Context, programID string) (int, error) {
	const query = `SELECT COUNT(*) FROM document_requirements WHERE program_id = $1 AND mandatory = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, programID); err != nil {
		return 0, fmt.Errorf("count mandatory requirements: %w", err)
	}
	return count, nil
}

// CountMandatoryUploaded counts distinct mandatory requirements the
// application has an upload for, regardless of review state.
func (r *DocumentRepository) CountMandatoryUploaded(ctx context.Context, applicationID string) (int, error) {
	const query = `SELECT COUNT(DISTINCT d.requirement_id)
        FROM document_uploads d
        JOIN document_requirements dr ON dr.id = d.requirement_id
        WHERE d.application_id = $1 AND dr.mandatory = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, applicationID); err != nil {
		return 0, fmt.Errorf("count mandatory uploads: %w", err)
	}
	return count, nil
}
