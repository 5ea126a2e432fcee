package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type applicationRepository interface {
	Create(ctx context.Context, app *models.ScholarshipApplication) error
	FindByID(ctx context.Context, id string) (*models.ScholarshipApplication, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	FindByStudentAndProgram(ctx context.Context, studentID, programID string) (*models.ScholarshipApplication, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.ScholarshipApplication, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) error
}

type applicationProgramReader interface {
	FindByID(ctx context.Context, id string) (*models.ScholarshipProgram, error)
}

type applicationStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
}

type applicationDocumentCounter interface {
	CountMandatoryUploaded(ctx context.Context, applicationID string) (int, error)
	CountMandatoryRequirements(ctx context.Context, programID string) (int, error)
}

// ApplicationService orchestrates the application lifecycle: draft creation,
// student submission, and admin status decisions with their cascades.
type ApplicationService struct {
	apps      applicationRepository
	programs  applicationProgramReader
	students  applicationStudentReader
	documents applicationDocumentCounter
	tx        txProvider
	notifier  workflowNotifier
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(
	apps applicationRepository,
	programs applicationProgramReader,
	students applicationStudentReader,
	documents applicationDocumentCounter,
	tx txProvider,
	notifier workflowNotifier,
	audit auditWriter,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ApplicationService{
		apps:      apps,
		programs:  programs,
		students:  students,
		documents: documents,
		tx:        tx,
		notifier:  notifier,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create starts a draft application for the acting student.
func (s *ApplicationService) Create(ctx context.Context, actor Actor, req dto.CreateApplicationRequest) (*models.ScholarshipApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}

	program, err := s.programs.FindByID(ctx, req.ProgramID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scholarship program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "program is no longer accepting applications")
	}

	if existing, err := s.apps.FindByStudentAndProgram(ctx, profile.ID, program.ID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an application for this program already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}

	app := &models.ScholarshipApplication{
		StudentID: profile.ID,
		ProgramID: program.ID,
		Status:    models.ApplicationStatusDraft,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.logger.Info("application drafted",
		zap.String("application_id", app.ID),
		zap.String("program_id", program.ID),
		zap.String("student_id", profile.ID))
	return app, nil
}

// Get returns an application with context, enforcing student ownership.
func (s *ApplicationService) Get(ctx context.Context, actor Actor, id string) (*models.ApplicationDetail, error) {
	detail, err := s.apps.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !actor.IsAdmin() {
		if err := s.ensureOwnership(ctx, actor, detail.StudentID); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// List returns applications matching the query. Students only ever see
// their own rows regardless of the filter they send.
func (s *ApplicationService) List(ctx context.Context, actor Actor, query dto.ApplicationQuery) ([]models.ApplicationDetail, int, error) {
	filter := models.ApplicationFilter{
		StudentID: query.StudentID,
		ProgramID: query.ProgramID,
		Status:    query.Status,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if !actor.IsAdmin() {
		profile, err := s.students.FindByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
			}
			return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
		}
		filter.StudentID = profile.ID
	}

	applications, total, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, total, nil
}

// Submit moves the acting student's draft to submitted. The deadline, the
// program's eligibility filters, and the mandatory document checklist are
// all checked before anything is written.
func (s *ApplicationService) Submit(ctx context.Context, actor Actor, applicationID string) (*models.ScholarshipApplication, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	app, err := s.apps.GetForUpdateTx(ctx, tx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}

	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to you")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if profile.ID != app.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "application does not belong to you")
	}

	program, err := s.programs.FindByID(ctx, app.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if time.Now().UTC().After(program.ApplicationDeadline) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the application deadline has passed")
	}
	if err := workflow.CheckProgramEligibility(profile, program); err != nil {
		return nil, err
	}

	required, err := s.documents.CountMandatoryRequirements(ctx, program.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count required documents")
	}
	uploaded, err := s.documents.CountMandatoryUploaded(ctx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count uploaded documents")
	}
	if err := workflow.CanSubmitApplication(app.Status, uploaded, required); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	app.Status = models.ApplicationStatusSubmitted
	app.SubmittedAt = &now
	if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit application")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit submission")
	}

	s.recordAudit(ctx, actor, app.ID, models.AuditActionApplicationStatus, models.ApplicationStatusDraft, app.Status)
	s.invalidateDashboard(ctx)
	s.logger.Info("application submitted", zap.String("application_id", app.ID))
	return app, nil
}

// UpdateStatus applies an admin status decision and fires the student
// notification. A request for the current status is accepted silently.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor Actor, applicationID string, req dto.UpdateApplicationStatusRequest) (*models.ScholarshipApplication, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	app, err := s.apps.GetForUpdateTx(ctx, tx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}

	outcome, err := workflow.CheckApplicationTransition(app.Status, req.Status)
	if err != nil {
		return nil, err
	}
	if outcome == workflow.OutcomeUnchanged {
		return app, nil
	}

	oldStatus := app.Status
	now := time.Now().UTC()
	app.Status = req.Status
	app.ReviewedAt = &now
	if req.AdminNotes != "" {
		app.AdminNotes = &req.AdminNotes
	}
	if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application status")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit status update")
	}

	s.recordAudit(ctx, actor, app.ID, models.AuditActionApplicationStatus, oldStatus, app.Status)
	s.invalidateDashboard(ctx)
	s.notifyStudent(ctx, app.StudentID, oldStatus, app.Status, req.AdminNotes)

	s.logger.Info("application status updated",
		zap.String("application_id", app.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(app.Status)))
	return app, nil
}

func (s *ApplicationService) ensureOwnership(ctx context.Context, actor Actor, studentID string) error {
	profile, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "application does not belong to you")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	if profile.ID != studentID {
		return appErrors.Clone(appErrors.ErrForbidden, "application does not belong to you")
	}
	return nil
}

func (s *ApplicationService) notifyStudent(ctx context.Context, studentID string, oldStatus, newStatus models.ApplicationStatus, adminNote string) {
	if s.notifier == nil {
		return
	}
	profile, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient", zap.Error(err))
		return
	}
	if intent := workflow.DecideApplicationNotification(profile.UserID, oldStatus, newStatus, adminNote); intent != nil {
		s.notifier.Notify(ctx, intent)
	}
}

func (s *ApplicationService) recordAudit(ctx context.Context, actor Actor, applicationID, action string, oldStatus, newStatus models.ApplicationStatus) {
	if s.audit == nil {
		return
	}
	oldPayload, _ := json.Marshal(map[string]string{"status": string(oldStatus)})
	newPayload, _ := json.Marshal(map[string]string{"status": string(newStatus)})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "application",
		ResourceID: &applicationID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func (s *ApplicationService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to invalidate %s cache", dashboardCachePattern), zap.Error(err))
	}
}
