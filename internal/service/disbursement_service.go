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

type disbursementRepository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error
	FindByID(ctx context.Context, id string) (*models.Disbursement, error)
	List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Disbursement, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error
}

// DisbursementService orchestrates payouts: creation gated on the parent
// application status and processing updates with the disbursement_processed
// cascade.
type DisbursementService struct {
	disbursements disbursementRepository
	apps          documentApplicationRepository
	students      applicationStudentReader
	tx            txProvider
	notifier      workflowNotifier
	audit         auditWriter
	cache         cacheInvalidator
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewDisbursementService constructs a DisbursementService.
func NewDisbursementService(
	disbursements disbursementRepository,
	apps documentApplicationRepository,
	students applicationStudentReader,
	tx txProvider,
	notifier workflowNotifier,
	audit auditWriter,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *DisbursementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DisbursementService{
		disbursements: disbursements,
		apps:          apps,
		students:      students,
		tx:            tx,
		notifier:      notifier,
		audit:         audit,
		cache:         cache,
		validator:     validate,
		logger:        logger,
	}
}

// Create records a pending payout. The parent application must hold a
// disbursement-eligible status at the moment of creation.
func (s *DisbursementService) Create(ctx context.Context, actor Actor, req dto.CreateDisbursementRequest) (*models.Disbursement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disbursement payload")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	app, err := s.apps.GetForUpdateTx(ctx, tx, req.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}
	if err := workflow.CanCreateDisbursement(app.Status); err != nil {
		return nil, err
	}

	disbursementDate := req.DisbursementDate
	if disbursementDate.IsZero() {
		disbursementDate = time.Now().UTC()
	}
	d := &models.Disbursement{
		ApplicationID:    app.ID,
		Amount:           req.Amount,
		PaymentMethod:    req.PaymentMethod,
		ReferenceNumber:  req.ReferenceNumber,
		DisbursementDate: disbursementDate,
		Status:           models.DisbursementStatusPending,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		d.Notes = &notes
	}
	if err := s.disbursements.CreateTx(ctx, tx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create disbursement")
	}

	// Creating the first payout parks the application in
	// disbursement_pending unless it is already further along.
	oldStatus := app.Status
	if app.Status != models.ApplicationStatusDisbursementPending {
		app.Status = models.ApplicationStatusDisbursementPending
		if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance application")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit disbursement")
	}

	s.recordAudit(ctx, actor, d.ID, models.AuditActionDisbursementCreate, "", d.Status)
	s.invalidateDashboard(ctx)
	s.notifyApplication(ctx, app, oldStatus)

	s.logger.Info("disbursement created",
		zap.String("disbursement_id", d.ID),
		zap.String("application_id", app.ID),
		zap.Float64("amount", d.Amount))
	return d, nil
}

// UpdateStatus moves a disbursement through processing. Marking it processed
// moves the parent application to disbursement_processed in the same
// transaction; a repeated status is accepted silently.
func (s *DisbursementService) UpdateStatus(ctx context.Context, actor Actor, disbursementID string, req dto.UpdateDisbursementStatusRequest) (*models.Disbursement, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	d, err := s.disbursements.GetForUpdateTx(ctx, tx, disbursementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disbursement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock disbursement")
	}

	app, err := s.apps.GetForUpdateTx(ctx, tx, d.ApplicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}

	outcome, err := workflow.CheckDisbursementStatus(d.Status, req.Status)
	if err != nil {
		return nil, err
	}
	if outcome == workflow.OutcomeUnchanged {
		return d, nil
	}

	oldStatus := d.Status
	d.Status = req.Status
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		d.Notes = &notes
	}
	if err := s.disbursements.UpdateStatusTx(ctx, tx, d); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update disbursement")
	}

	oldAppStatus := app.Status
	if d.Status == models.DisbursementStatusProcessed && s.canMarkProcessed(app.Status) {
		now := time.Now().UTC()
		app.Status = models.ApplicationStatusDisbursementDone
		app.ReviewedAt = &now
		if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance application")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit status update")
	}

	s.recordAudit(ctx, actor, d.ID, models.AuditActionDisbursementStatus, oldStatus, d.Status)
	s.invalidateDashboard(ctx)
	if app.Status != oldAppStatus {
		s.notifyApplication(ctx, app, oldAppStatus)
	}

	s.logger.Info("disbursement status updated",
		zap.String("disbursement_id", d.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(d.Status)))
	return d, nil
}

// Get returns a disbursement by ID.
func (s *DisbursementService) Get(ctx context.Context, id string) (*models.Disbursement, error) {
	d, err := s.disbursements.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "disbursement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load disbursement")
	}
	return d, nil
}

// List returns disbursements matching the filter.
func (s *DisbursementService) List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error) {
	disbursements, total, err := s.disbursements.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list disbursements")
	}
	return disbursements, total, nil
}

// canMarkProcessed keeps terminal applications untouched by the cascade.
func (s *DisbursementService) canMarkProcessed(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationStatusCompleted,
		models.ApplicationStatusRejected,
		models.ApplicationStatusDisbursementDone:
		return false
	}
	return true
}

func (s *DisbursementService) notifyApplication(ctx context.Context, app *models.ScholarshipApplication, oldStatus models.ApplicationStatus) {
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

func (s *DisbursementService) recordAudit(ctx context.Context, actor Actor, disbursementID, action string, oldStatus, newStatus models.DisbursementStatus) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "disbursement",
		ResourceID: &disbursementID,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, oldStatus)),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, newStatus)),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func (s *DisbursementService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
