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

// DisbursementRepository handles persistence of scholarship disbursements.
type DisbursementRepository struct {
	db *sqlx.DB
}

// NewDisbursementRepository constructs the repository.
func NewDisbursementRepository(db *sqlx.DB) *DisbursementRepository {
	return &DisbursementRepository{db: db}
}

const disbursementColumns = `id, application_id, amount, payment_method, reference_number, disbursement_date, status, notes, created_at, updated_at`

// CreateTx persists a new disbursement inside the caller's transaction.
func (r *DisbursementRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	const query = `INSERT INTO disbursements (id, application_id, amount, payment_method, reference_number, disbursement_date, status, notes, created_at, updated_at)
        VALUES (:id, :application_id, :amount, :payment_method, :reference_number, :disbursement_date, :status, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create disbursement: %w", err)
	}
	return nil
}

// FindByID returns a disbursement by its identifier.
func (r *DisbursementRepository) FindByID(ctx context.Context, id string) (*models.Disbursement, error) {
	query := fmt.Sprintf(`SELECT %s FROM disbursements WHERE id = $1`, disbursementColumns)
	var d models.Disbursement
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns disbursements matching the filter with a total count.
func (r *DisbursementRepository) List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error) {
	baseQuery := `FROM disbursements d WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ApplicationID != "" {
		conditions = append(conditions, fmt.Sprintf("d.application_id = $%d", len(args)+1))
		args = append(args, filter.ApplicationID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("d.application_id IN (SELECT id FROM scholarship_applications WHERE program_id = $%d)", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)+1))
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY d.disbursement_date DESC LIMIT %d OFFSET %d",
		prefixColumns("d", disbursementColumns), baseQuery, pageSize, offset)
	var disbursements []models.Disbursement
	if err := r.db.SelectContext(ctx, &disbursements, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list disbursements: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count disbursements: %w", err)
	}
	return disbursements, total, nil
}

// ListAll streams every disbursement for export, joined with student and
// program context.
func (r *DisbursementRepository) ListAll(ctx context.Context, filter models.DisbursementFilter) ([]models.DisbursementExportRow, error) {
	baseQuery := `FROM disbursements d
        JOIN scholarship_applications a ON a.id = d.application_id
        JOIN student_profiles sp ON sp.id = a.student_id
        JOIN users u ON u.id = sp.user_id
        JOIN scholarship_programs p ON p.id = a.program_id
        WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("a.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT d.id, d.amount, d.payment_method, d.reference_number, d.disbursement_date, d.status,
        u.full_name AS student_name, sp.nis AS student_nis, p.name AS program_name %s ORDER BY d.disbursement_date ASC`, baseQuery)
	var rows []models.DisbursementExportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list disbursements for export: %w", err)
	}
	return rows, nil
}

// GetForUpdateTx loads a disbursement inside the transaction and locks its row.
func (r *DisbursementRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Disbursement, error) {
	query := fmt.Sprintf(`SELECT %s FROM disbursements WHERE id = $1 FOR UPDATE`, disbursementColumns)
	var d models.Disbursement
	if err := tx.GetContext(ctx, &d, query, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateStatusTx writes the disbursement status inside the transaction.
func (r *DisbursementRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error {
	d.UpdatedAt = time.Now().UTC()
	const query = `UPDATE disbursements SET status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("update disbursement status: %w", err)
	}
	return nil
}

// SumProcessed totals processed payouts across all programs.
func (r *DisbursementRepository) SumProcessed(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM disbursements WHERE status = $1`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, models.DisbursementStatusProcessed); err != nil {
		return 0, fmt.Errorf("sum processed disbursements: %w", err)
	}
	return total, nil
}

// SumProcessedByProgram totals processed payouts per program for the
// dashboard budget view.
func (r *DisbursementRepository) SumProcessedByProgram(ctx context.Context, programID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(d.amount), 0)
        FROM disbursements d
        JOIN scholarship_applications a ON a.id = d.application_id
        WHERE a.program_id = $1 AND d.status = $2`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, programID, models.DisbursementStatusProcessed); err != nil {
		return 0, fmt.Errorf("sum processed disbursements: %w", err)
	}
	return total, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}
