package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type programRepository interface {
	Create(ctx context.Context, program *models.ScholarshipProgram) error
	FindByID(ctx context.Context, id string) (*models.ScholarshipProgram, error)
	Update(ctx context.Context, program *models.ScholarshipProgram) error
	List(ctx context.Context, filter models.ProgramFilter) ([]models.ScholarshipProgram, int, error)
	CreateRequirement(ctx context.Context, req *models.DocumentRequirement) error
	ListRequirements(ctx context.Context, programID string) ([]models.DocumentRequirement, error)
}

// ProgramService manages scholarship programs and their document checklists.
type ProgramService struct {
	programs  programRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a ProgramService.
func NewProgramService(programs programRepository, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgramService{programs: programs, validator: validate, logger: logger}
}

// Create registers a new program.
func (s *ProgramService) Create(ctx context.Context, req dto.CreateProgramRequest) (*models.ScholarshipProgram, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	if req.ApplicationDeadline.Before(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "application deadline must be in the future")
	}

	program := &models.ScholarshipProgram{
		Name:                 req.Name,
		Description:          req.Description,
		TotalBudget:          req.TotalBudget,
		AwardAmount:          req.AwardAmount,
		EligibleSchoolType:   req.EligibleSchoolType,
		MinGPA:               req.MinGPA,
		MinUnits:             req.MinUnits,
		CommunityServiceDays: req.CommunityServiceDays,
		ApplicationDeadline:  req.ApplicationDeadline,
		Active:               true,
	}
	if err := s.programs.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}

	s.logger.Info("program created", zap.String("program_id", program.ID), zap.String("name", program.Name))
	return program, nil
}

// Get returns a program with its document requirements.
func (s *ProgramService) Get(ctx context.Context, id string) (*dto.ProgramResponse, error) {
	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	requirements, err := s.programs.ListRequirements(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	return &dto.ProgramResponse{ScholarshipProgram: *program, Requirements: requirements}, nil
}

// List returns programs matching the filter.
func (s *ProgramService) List(ctx context.Context, filter models.ProgramFilter) ([]models.ScholarshipProgram, int, error) {
	programs, total, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, total, nil
}

// Update modifies program fields.
func (s *ProgramService) Update(ctx context.Context, id string, req dto.UpdateProgramRequest) (*models.ScholarshipProgram, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}

	program, err := s.programs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	if req.Name != nil {
		program.Name = *req.Name
	}
	if req.Description != nil {
		program.Description = *req.Description
	}
	if req.TotalBudget != nil {
		program.TotalBudget = *req.TotalBudget
	}
	if req.AwardAmount != nil {
		program.AwardAmount = *req.AwardAmount
	}
	if req.ApplicationDeadline != nil {
		program.ApplicationDeadline = *req.ApplicationDeadline
	}
	if req.Active != nil {
		program.Active = *req.Active
	}
	if err := s.programs.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}

// AddRequirement declares a document requirement on a program.
func (s *ProgramService) AddRequirement(ctx context.Context, programID string, req dto.CreateRequirementRequest) (*models.DocumentRequirement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid requirement payload")
	}
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	requirement := &models.DocumentRequirement{
		ProgramID:   programID,
		Name:        req.Name,
		Description: req.Description,
		Mandatory:   req.Mandatory,
	}
	if err := s.programs.CreateRequirement(ctx, requirement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create requirement")
	}
	return requirement, nil
}
