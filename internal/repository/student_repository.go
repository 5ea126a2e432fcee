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

// StudentRepository handles persistence of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, user_id, nis, full_name, school_name, school_type, gpa, units_completed, phone, address, created_at, updated_at`

// Create persists a new student profile.
func (r *StudentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	const query = `INSERT INTO student_profiles (id, user_id, nis, full_name, school_name, school_type, gpa, units_completed, phone, address, created_at, updated_at)
        VALUES (:id, :user_id, :nis, :full_name, :school_name, :school_type, :gpa, :units_completed, :phone, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create student profile: %w", err)
	}
	return nil
}

// FindByID returns a profile by its identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE id = $1`, studentColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByUserID returns the profile owned by the given account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_profiles WHERE user_id = $1`, studentColumns)
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update persists mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_profiles SET full_name = :full_name, school_name = :school_name, school_type = :school_type,
        gpa = :gpa, units_completed = :units_completed, phone = :phone, address = :address, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// List returns profiles matching the filter with a total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentProfileFilter) ([]models.StudentProfile, int, error) {
	baseQuery := `FROM student_profiles WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR nis LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.SchoolType != "" {
		conditions = append(conditions, fmt.Sprintf("school_type = $%d", len(args)+1))
		args = append(args, filter.SchoolType)
	}
	if filter.MinGPA != nil {
		conditions = append(conditions, fmt.Sprintf("gpa >= $%d", len(args)+1))
		args = append(args, *filter.MinGPA)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"full_name": true, "gpa": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, baseQuery, sortBy, sortOrder, pageSize, offset)
	var profiles []models.StudentProfile
	if err := r.db.SelectContext(ctx, &profiles, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list student profiles: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count student profiles: %w", err)
	}
	return profiles, total, nil
}
