package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type studentProfileRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	Update(ctx context.Context, profile *models.StudentProfile) error
	List(ctx context.Context, filter models.StudentProfileFilter) ([]models.StudentProfile, int, error)
}

type studentUserWriter interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// StudentService manages student accounts and profiles.
type StudentService struct {
	students  studentProfileRepository
	users     studentUserWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentProfileRepository, users studentUserWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentService{students: students, users: users, validator: validate, logger: logger}
}

// Register creates a student account together with its profile.
func (s *StudentService) Register(ctx context.Context, req dto.RegisterStudentRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if !req.SchoolType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown school type")
	}

	if existing, err := s.users.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	profile := &models.StudentProfile{
		UserID:         user.ID,
		NIS:            req.NIS,
		FullName:       req.FullName,
		SchoolName:     req.SchoolName,
		SchoolType:     req.SchoolType,
		GPA:            req.GPA,
		UnitsCompleted: req.UnitsCompleted,
		Phone:          req.Phone,
		Address:        req.Address,
	}
	if err := s.students.Create(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}

	s.logger.Info("student registered", zap.String("student_id", profile.ID), zap.String("nis", profile.NIS))
	return profile, nil
}

// Get returns a profile by its identifier.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentProfile, error) {
	profile, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// GetByUser returns the acting user's own profile.
func (s *StudentService) GetByUser(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// Update modifies profile fields. Students may only touch their own profile;
// the handler passes ownership through the actor.
func (s *StudentService) Update(ctx context.Context, actor Actor, id string, req dto.UpdateStudentProfileRequest) (*models.StudentProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && profile.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "profile does not belong to you")
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.SchoolName != nil {
		profile.SchoolName = *req.SchoolName
	}
	if req.GPA != nil {
		profile.GPA = *req.GPA
	}
	if req.UnitsCompleted != nil {
		profile.UnitsCompleted = *req.UnitsCompleted
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}
	if err := s.students.Update(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return profile, nil
}

// List returns profiles matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentProfileFilter) ([]models.StudentProfile, int, error) {
	profiles, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list profiles")
	}
	return profiles, total, nil
}
