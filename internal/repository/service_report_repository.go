package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

// ServiceReportRepository handles persistence of community service reports.
type ServiceReportRepository struct {
	db *sqlx.DB
}

// NewServiceReportRepository constructs the repository.
func NewServiceReportRepository(db *sqlx.DB) *ServiceReportRepository {
	return &ServiceReportRepository{db: db}
}

const serviceReportColumns = `id, application_id, days_completed, description, status, rejection_reason, admin_notes, submitted_at, reviewed_at`

// CreateTx persists a new report inside the caller's transaction so the quota
// check and the insert are serialized by the application row lock.
func (r *ServiceReportRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO community_service_reports (id, application_id, days_completed, description, status, rejection_reason, admin_notes, submitted_at, reviewed_at)
        VALUES (:id, :application_id, :days_completed, :description, :status, :rejection_reason, :admin_notes, :submitted_at, :reviewed_at)`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create service report: %w", err)
	}
	return nil
}

// FindByID returns a report by its identifier.
func (r *ServiceReportRepository) FindByID(ctx context.Context, id string) (*models.CommunityServiceReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM community_service_reports WHERE id = $1`, serviceReportColumns)
	var report models.CommunityServiceReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns reports matching the filter with a total count.
func (r *ServiceReportRepository) List(ctx context.Context, filter models.ServiceReportFilter) ([]models.CommunityServiceReport, int, error) {
	baseQuery := `FROM community_service_reports WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ApplicationID != "" {
		conditions = append(conditions, fmt.Sprintf("application_id = $%d", len(args)+1))
		args = append(args, filter.ApplicationID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d", serviceReportColumns, baseQuery, pageSize, offset)
	var reports []models.CommunityServiceReport
	if err := r.db.SelectContext(ctx, &reports, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list service reports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count service reports: %w", err)
	}
	return reports, total, nil
}

// CountPending counts reports still waiting for review.
func (r *ServiceReportRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM community_service_reports WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.ServiceReportStatusPendingReview); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return count, nil
}

// ListByApplicationTx reads the application's reports inside the caller's
// transaction for quota aggregation.
func (r *ServiceReportRepository) ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.CommunityServiceReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM community_service_reports WHERE application_id = $1`, serviceReportColumns)
	var reports []models.CommunityServiceReport
	if err := tx.SelectContext(ctx, &reports, query, applicationID); err != nil {
		return nil, fmt.Errorf("list service reports in tx: %w", err)
	}
	return reports, nil
}

// GetForUpdateTx loads a report inside the transaction and locks its row.
func (r *ServiceReportRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.CommunityServiceReport, error) {
	query := fmt.Sprintf(`SELECT %s FROM community_service_reports WHERE id = $1 FOR UPDATE`, serviceReportColumns)
	var report models.CommunityServiceReport
	if err := tx.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateReviewTx writes the review outcome inside the transaction.
func (r *ServiceReportRepository) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error {
	const query = `UPDATE community_service_reports SET status = :status, rejection_reason = :rejection_reason,
        admin_notes = :admin_notes, reviewed_at = :reviewed_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update service report review: %w", err)
	}
	return nil
}
