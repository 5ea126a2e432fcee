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

// ProgramRepository handles persistence of scholarship programs and their
// document requirements.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs the repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

const programColumns = `id, name, description, total_budget, award_amount, eligible_school_type, min_gpa, min_units, community_service_days, application_deadline, active, created_at, updated_at`

// Create persists a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.ScholarshipProgram) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if program.CreatedAt.IsZero() {
		program.CreatedAt = now
	}
	program.UpdatedAt = now
	const query = `INSERT INTO scholarship_programs (id, name, description, total_budget, award_amount, eligible_school_type, min_gpa, min_units, community_service_days, application_deadline, active, created_at, updated_at)
        VALUES (:id, :name, :description, :total_budget, :award_amount, :eligible_school_type, :min_gpa, :min_units, :community_service_days, :application_deadline, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// FindByID returns a program by its identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.ScholarshipProgram, error) {
	query := fmt.Sprintf(`SELECT %s FROM scholarship_programs WHERE id = $1`, programColumns)
	var program models.ScholarshipProgram
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// Update persists mutable program fields.
func (r *ProgramRepository) Update(ctx context.Context, program *models.ScholarshipProgram) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scholarship_programs SET name = :name, description = :description, total_budget = :total_budget,
        award_amount = :award_amount, eligible_school_type = :eligible_school_type, min_gpa = :min_gpa, min_units = :min_units,
        community_service_days = :community_service_days, application_deadline = :application_deadline, active = :active,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// List returns programs matching the filter with a total count.
func (r *ProgramRepository) List(ctx context.Context, filter models.ProgramFilter) ([]models.ScholarshipProgram, int, error) {
	baseQuery := `FROM scholarship_programs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY application_deadline ASC LIMIT %d OFFSET %d", programColumns, baseQuery, pageSize, offset)
	var programs []models.ScholarshipProgram
	if err := r.db.SelectContext(ctx, &programs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}
	return programs, total, nil
}

// CountActive counts programs still open for applications.
func (r *ProgramRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM scholarship_programs WHERE active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count active programs: %w", err)
	}
	return count, nil
}

// CreateRequirement adds a document requirement to a program.
func (r *ProgramRepository) CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO document_requirements (id, program_id, name, description, mandatory, created_at)
        VALUES (:id, :program_id, :name, :description, :mandatory, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create document requirement: %w", err)
	}
	return nil
}

// ListRequirements returns all requirements declared by a program.
func (r *ProgramRepository) ListRequirements(ctx context.Context, programID string) ([]models.DocumentRequirement, error) {
	const query = `SELECT id, program_id, name, description, mandatory, created_at FROM document_requirements WHERE program_id = $1 ORDER BY name ASC`
	var requirements []models.DocumentRequirement
	if err := r.db.SelectContext(ctx, &requirements, query, programID); err != nil {
		return nil, fmt.Errorf("list document requirements: %w", err)
	}
	return requirements, nil
}
