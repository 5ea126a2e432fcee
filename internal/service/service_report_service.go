package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type serviceReportRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error
	FindByID(ctx context.Context, id string) (*models.CommunityServiceReport, error)
	List(ctx context.Context, filter models.ServiceReportFilter) ([]models.CommunityServiceReport, int, error)
	ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.CommunityServiceReport, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.CommunityServiceReport, error)
	UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error
}

// ServiceReportService orchestrates community service reporting: student
// submissions against the program quota and admin reviews, with the
// service_completed cascade.
type ServiceReportService struct {
	reports   serviceReportRepository
	apps      documentApplicationRepository
	programs  applicationProgramReader
	students  applicationStudentReader
	tx        txProvider
	notifier  workflowNotifier
	audit     auditWriter
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewServiceReportService constructs a ServiceReportService.
func NewServiceReportService(
	reports serviceReportRepository,
	apps documentApplicationRepository,
	programs applicationProgramReader,
	students applicationStudentReader,
	tx txProvider,
	notifier workflowNotifier,
	audit auditWriter,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *ServiceReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ServiceReportService{
		reports:   reports,
		apps:      apps,
		programs:  programs,
		students:  students,
		tx:        tx,
		notifier:  notifier,
		audit:     audit,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Submit records service days for the acting student's application. The
// reported days must fit inside the remaining quota; reaching the quota
// moves the application to service_completed in the same transaction.
func (s *ServiceReportService) Submit(ctx context.Context, actor Actor, applicationID string, req dto.SubmitServiceReportRequest) (*models.CommunityServiceReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

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

	if err := s.ensureOwnership(ctx, actor, app.StudentID); err != nil {
		return nil, err
	}
	if err := workflow.CanSubmitServiceReport(app.Status); err != nil {
		return nil, err
	}

	program, err := s.programs.FindByID(ctx, app.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	siblings, err := s.reports.ListByApplicationTx(ctx, tx, app.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read existing reports")
	}
	if err := workflow.CheckReportedDays(siblings, program.CommunityServiceDays, req.DaysCompleted); err != nil {
		return nil, err
	}

	report := &models.CommunityServiceReport{
		ApplicationID: app.ID,
		DaysCompleted: req.DaysCompleted,
		Description:   req.Description,
		Status:        models.ServiceReportStatusPendingReview,
	}
	if err := s.reports.CreateTx(ctx, tx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record report")
	}

	// The first report moves enrolled to service_pending; reaching the
	// quota completes the stage outright.
	siblings = append(siblings, *report)
	oldStatus := app.Status
	switch {
	case workflow.QuotaMet(siblings, program.CommunityServiceDays):
		app.Status = models.ApplicationStatusServiceCompleted
	case app.Status == models.ApplicationStatusEnrolled:
		app.Status = models.ApplicationStatusServicePending
	}
	if app.Status != oldStatus {
		if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance application")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit report")
	}

	s.invalidateDashboard(ctx)
	if app.Status != oldStatus {
		s.notifyApplicationChange(ctx, app, oldStatus)
	}
	s.logger.Info("service report submitted",
		zap.String("application_id", app.ID),
		zap.Int("days", req.DaysCompleted),
		zap.String("application_status", string(app.Status)))
	return report, nil
}

// Review applies an admin decision to one report and recomputes the quota
// cascade. A rejection subtracts its days from the aggregate, but an
// already-reached service_completed is never reversed.
func (s *ServiceReportService) Review(ctx context.Context, actor Actor, reportID string, req dto.ReviewServiceReportRequest) (*models.CommunityServiceReport, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	report, app, err := s.reviewInTx(ctx, tx, reportID, req)
	if err != nil {
		return nil, err
	}
	oldStatus := report.oldStatus

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit review")
	}

	s.recordAudit(ctx, actor, report.report, oldStatus)
	s.invalidateDashboard(ctx)
	if report.changed {
		s.notifyReview(ctx, app, report.report, oldStatus)
	}
	if app.Status != report.appOldStatus {
		s.notifyApplicationChange(ctx, app, report.appOldStatus)
	}
	return report.report, nil
}

// BulkReview reviews several reports with one decision. Items are processed
// independently; a failing item does not abort the rest.
func (s *ServiceReportService) BulkReview(ctx context.Context, actor Actor, req dto.BulkReviewServiceReportsRequest) ([]dto.BulkReviewResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk review payload")
	}

	results := make([]dto.BulkReviewResult, 0, len(req.ReportIDs))
	item := dto.ReviewServiceReportRequest{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		AdminNotes:      req.AdminNotes,
	}
	for _, id := range req.ReportIDs {
		if _, err := s.Review(ctx, actor, id, item); err != nil {
			results = append(results, dto.BulkReviewResult{ReportID: id, Error: err.Error()})
			continue
		}
		results = append(results, dto.BulkReviewResult{ReportID: id, Success: true})
	}
	return results, nil
}

// Progress summarises quota standing for an application.
func (s *ServiceReportService) Progress(ctx context.Context, actor Actor, applicationID string) (*dto.ServiceProgressResponse, error) {
	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !actor.IsAdmin() {
		if err := s.ensureOwnership(ctx, actor, app.StudentID); err != nil {
			return nil, err
		}
	}

	program, err := s.programs.FindByID(ctx, app.ProgramID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	reports, _, err := s.reports.List(ctx, models.ServiceReportFilter{ApplicationID: app.ID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	completed := workflow.ServiceDaysCompleted(reports)
	return &dto.ServiceProgressResponse{
		Quota:         program.CommunityServiceDays,
		DaysCompleted: completed,
		RemainingDays: workflow.RemainingDays(reports, program.CommunityServiceDays),
	}, nil
}

// List returns reports matching the filter.
func (s *ServiceReportService) List(ctx context.Context, filter models.ServiceReportFilter) ([]models.CommunityServiceReport, int, error) {
	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, total, nil
}

type reviewedReport struct {
	report       *models.CommunityServiceReport
	oldStatus    models.ServiceReportStatus
	appOldStatus models.ApplicationStatus
	changed      bool
}

func (s *ServiceReportService) reviewInTx(ctx context.Context, tx *sqlx.Tx, reportID string, req dto.ReviewServiceReportRequest) (*reviewedReport, *models.ScholarshipApplication, error) {
	report, err := s.reports.GetForUpdateTx(ctx, tx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "service report not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock report")
	}

	app, err := s.apps.GetForUpdateTx(ctx, tx, report.ApplicationID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}

	outcome, err := workflow.CheckServiceReportReview(report.Status, req.Status, req.RejectionReason)
	if err != nil {
		return nil, nil, err
	}
	if outcome == workflow.OutcomeUnchanged {
		return &reviewedReport{report: report, oldStatus: report.Status, appOldStatus: app.Status}, app, nil
	}

	oldStatus := report.Status
	now := time.Now().UTC()
	report.Status = req.Status
	report.ReviewedAt = &now
	report.RejectionReason = nil
	report.AdminNotes = nil
	if req.Status.IsRejection() {
		reason := strings.TrimSpace(req.RejectionReason)
		report.RejectionReason = &reason
	}
	if notes := strings.TrimSpace(req.AdminNotes); notes != "" {
		report.AdminNotes = &notes
	}
	if err := s.reports.UpdateReviewTx(ctx, tx, report); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}

	appOldStatus := app.Status
	if err := s.cascadeQuota(ctx, tx, app); err != nil {
		return nil, nil, err
	}

	return &reviewedReport{report: report, oldStatus: oldStatus, appOldStatus: appOldStatus, changed: true}, app, nil
}

// cascadeQuota recomputes the aggregate after a review. Only applications
// still in the service stage move; service_completed is never reversed.
func (s *ServiceReportService) cascadeQuota(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) error {
	switch app.Status {
	case models.ApplicationStatusEnrolled, models.ApplicationStatusServicePending:
	default:
		return nil
	}

	program, err := s.programs.FindByID(ctx, app.ProgramID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	reports, err := s.reports.ListByApplicationTx(ctx, tx, app.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read sibling reports")
	}
	if !workflow.QuotaMet(reports, program.CommunityServiceDays) {
		return nil
	}

	now := time.Now().UTC()
	app.Status = models.ApplicationStatusServiceCompleted
	app.ReviewedAt = &now
	if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance application")
	}
	return nil
}

func (s *ServiceReportService) ensureOwnership(ctx context.Context, actor Actor, studentID string) error {
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

func (s *ServiceReportService) notifyReview(ctx context.Context, app *models.ScholarshipApplication, report *models.CommunityServiceReport, oldStatus models.ServiceReportStatus) {
	if s.notifier == nil {
		return
	}
	profile, err := s.students.FindByID(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient", zap.Error(err))
		return
	}
	reason := ""
	if report.RejectionReason != nil {
		reason = *report.RejectionReason
	}
	notes := ""
	if report.AdminNotes != nil {
		notes = *report.AdminNotes
	}
	if intent := workflow.DecideServiceReportNotification(profile.UserID, oldStatus, report.Status, reason, notes); intent != nil {
		s.notifier.Notify(ctx, intent)
	}
}

// notifyApplicationChange tells the student their application moved stage,
// on top of the report-level intent, whenever a submission or the quota
// cascade advanced the application.
func (s *ServiceReportService) notifyApplicationChange(ctx context.Context, app *models.ScholarshipApplication, oldStatus models.ApplicationStatus) {
	if s.notifier == nil {
		return
	}
	profile, err := s.students.FindByID(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient", zap.Error(err))
		return
	}
	if intent := workflow.DecideApplicationNotification(profile.UserID, oldStatus, app.Status, ""); intent != nil {
		s.notifier.Notify(ctx, intent)
	}
}

func (s *ServiceReportService) recordAudit(ctx context.Context, actor Actor, report *models.CommunityServiceReport, oldStatus models.ServiceReportStatus) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionServiceReview,
		Resource:   "service_report",
		ResourceID: &report.ID,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, oldStatus)),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, report.Status)),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func (s *ServiceReportService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
