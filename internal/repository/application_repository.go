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

// ApplicationRepository handles persistence of scholarship applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, student_id, program_id, status, admin_notes, submitted_at, reviewed_at, created_at, updated_at`

// Create persists a new application in draft state.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.ScholarshipApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now
	const query = `INSERT INTO scholarship_applications (id, student_id, program_id, status, admin_notes, submitted_at, reviewed_at, created_at, updated_at)
        VALUES (:id, :student_id, :program_id, :status, :admin_notes, :submitted_at, :reviewed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByID returns an application by its identifier.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM scholarship_applications WHERE id = $1`, applicationColumns)
	var app models.ScholarshipApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindDetailByID returns an application joined with student and program names.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	const query = `SELECT a.id, a.student_id, a.program_id, a.status, a.admin_notes, a.submitted_at, a.reviewed_at, a.created_at, a.updated_at,
        u.full_name AS student_name, sp.nis AS student_nis, p.name AS program_name
        FROM scholarship_applications a
        JOIN student_profiles sp ON sp.id = a.student_id
        JOIN users u ON u.id = sp.user_id
        JOIN scholarship_programs p ON p.id = a.program_id
        WHERE a.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByStudentAndProgram returns the student's application for a program,
// if any.
func (r *ApplicationRepository) FindByStudentAndProgram(ctx context.Context, studentID, programID string) (*models.ScholarshipApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM scholarship_applications WHERE student_id = $1 AND program_id = $2`, applicationColumns)
	var app models.ScholarshipApplication
	if err := r.db.GetContext(ctx, &app, query, studentID, programID); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns applications matching the filter with a total count.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	baseQuery := `FROM scholarship_applications a
        JOIN student_profiles sp ON sp.id = a.student_id
        JOIN users u ON u.id = sp.user_id
        JOIN scholarship_programs p ON p.id = a.program_id
        WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ProgramID != "" {
		conditions = append(conditions, fmt.Sprintf("a.program_id = $%d", len(args)+1))
		args = append(args, filter.ProgramID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortColumn := "a.created_at"
	switch filter.SortBy {
	case "submitted_at":
		sortColumn = "a.submitted_at"
	case "status":
		sortColumn = "a.status"
	case "student_name":
		sortColumn = "u.full_name"
	}
	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
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

	listQuery := fmt.Sprintf(`SELECT a.id, a.student_id, a.program_id, a.status, a.admin_notes, a.submitted_at, a.reviewed_at, a.created_at, a.updated_at,
        u.full_name AS student_name, sp.nis AS student_nis, p.name AS program_name %s
        ORDER BY %s %s LIMIT %d OFFSET %d`, baseQuery, sortColumn, sortOrder, pageSize, offset)
	var applications []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &applications, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return applications, total, nil
}

// GetForUpdateTx loads an application inside the transaction and locks its
// row. Every workflow mutation touching the application goes through this
// lock so cascades observe a stable state.
func (r *ApplicationRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.ScholarshipApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM scholarship_applications WHERE id = $1 FOR UPDATE`, applicationColumns)
	var app models.ScholarshipApplication
	if err := tx.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateStatusTx writes the application status and workflow timestamps inside
// the transaction.
func (r *ApplicationRepository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) error {
	app.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scholarship_applications SET status = :status, admin_notes = :admin_notes,
        submitted_at = :submitted_at, reviewed_at = :reviewed_at, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return nil
}

// CountByProgramAndStatuses counts applications for a program currently in
// any of the given statuses.
func (r *ApplicationRepository) CountByProgramAndStatuses(ctx context.Context, programID string, statuses []models.ApplicationStatus) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM scholarship_applications WHERE program_id = ? AND status IN (?)`, programID, statuses)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	query = r.db.Rebind(query)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count applications by status: %w", err)
	}
	return total, nil
}

// CountByStatus groups application counts by status, used by the dashboard.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (map[models.ApplicationStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM scholarship_applications GROUP BY status`
	rows := []struct {
		Status models.ApplicationStatus `db:"status"`
		Total  int                      `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	counts := make(map[models.ApplicationStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
