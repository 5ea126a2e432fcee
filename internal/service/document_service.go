package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
	"github.com/noah-isme/sma-beasiswa-api/pkg/storage"
)

type documentRepository interface {
	CreateUpload(ctx context.Context, upload *models.DocumentUpload) error
	FindByID(ctx context.Context, id string) (*models.DocumentUpload, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.DocumentUploadDetail, error)
	ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.DocumentUpload, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DocumentUpload, error)
	UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, upload *models.DocumentUpload) error
}

type documentApplicationRepository interface {
	FindByID(ctx context.Context, id string) (*models.ScholarshipApplication, error)
	GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.ScholarshipApplication, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) error
}

type documentRequirementReader interface {
	ListRequirements(ctx context.Context, programID string) ([]models.DocumentRequirement, error)
}

type documentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
}

// DocumentUploadInput carries the file metadata and contents of an upload.
type DocumentUploadInput struct {
	RequirementID string `validate:"required"`
	FileName      string `validate:"required"`
	MIMEType      string `validate:"required"`
	SizeBytes     int64  `validate:"gt=0"`
	Contents      io.Reader
}

// DocumentPolicy bounds what uploads are accepted.
type DocumentPolicy struct {
	MaxSizeBytes int64
	AllowedMIMEs []string
}

// DocumentService orchestrates uploads and admin document reviews, including
// the all-approved application cascade.
type DocumentService struct {
	documents documentRepository
	apps      documentApplicationRepository
	programs  documentRequirementReader
	students  applicationStudentReader
	storage   documentStorage
	signer    *storage.SignedURLSigner
	tx        txProvider
	notifier  workflowNotifier
	audit     auditWriter
	cache     cacheInvalidator
	policy    DocumentPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(
	documents documentRepository,
	apps documentApplicationRepository,
	programs documentRequirementReader,
	students applicationStudentReader,
	store documentStorage,
	signer *storage.SignedURLSigner,
	tx txProvider,
	notifier workflowNotifier,
	audit auditWriter,
	cache cacheInvalidator,
	policy DocumentPolicy,
	validate *validator.Validate,
	logger *zap.Logger,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DocumentService{
		documents: documents,
		apps:      apps,
		programs:  programs,
		students:  students,
		storage:   store,
		signer:    signer,
		tx:        tx,
		notifier:  notifier,
		audit:     audit,
		cache:     cache,
		policy:    policy,
		validator: validate,
		logger:    logger,
	}
}

// Upload stores a student's file for one requirement and records it pending
// review. Re-uploading the same requirement replaces the previous file.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, applicationID string, input DocumentUploadInput) (*models.DocumentUpload, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload")
	}
	if s.policy.MaxSizeBytes > 0 && input.SizeBytes > s.policy.MaxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", s.policy.MaxSizeBytes))
	}
	if len(s.policy.AllowedMIMEs) > 0 && !s.mimeAllowed(input.MIMEType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not accepted", input.MIMEType))
	}

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

	requirement, err := s.findRequirement(ctx, app.ProgramID, input.RequirementID)
	if err != nil {
		return nil, err
	}

	relativePath := filepath.Join("documents", app.ID, requirement.ID+filepath.Ext(input.FileName))
	if _, err := s.storage.SaveStream(relativePath, input.Contents); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	upload := &models.DocumentUpload{
		ApplicationID: app.ID,
		RequirementID: requirement.ID,
		FileName:      input.FileName,
		FilePath:      relativePath,
		MIMEType:      input.MIMEType,
		SizeBytes:     input.SizeBytes,
		Status:        models.DocumentStatusPending,
	}
	if err := s.documents.CreateUpload(ctx, upload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record upload")
	}

	s.logger.Info("document uploaded",
		zap.String("application_id", app.ID),
		zap.String("requirement_id", requirement.ID),
		zap.String("file", input.FileName))
	return upload, nil
}

// ListByApplication returns an application's uploads with requirement names.
func (s *DocumentService) ListByApplication(ctx context.Context, actor Actor, applicationID string) ([]models.DocumentUploadDetail, error) {
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
	uploads, err := s.documents.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploads")
	}
	return uploads, nil
}

// DownloadToken issues a signed, time-limited token for one stored upload.
// Ownership is checked here so the download endpoint itself can stay
// unauthenticated: the token is the credential.
func (s *DocumentService) DownloadToken(ctx context.Context, actor Actor, documentID string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "document downloads are not configured")
	}

	upload, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	app, err := s.apps.FindByID(ctx, upload.ApplicationID)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !actor.IsAdmin() {
		if err := s.ensureOwnership(ctx, actor, app.StudentID); err != nil {
			return "", time.Time{}, err
		}
	}

	token, expiresAt, err := s.signer.Generate(upload.ID, upload.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// Open resolves a download token to the stored file and its display name.
func (s *DocumentService) Open(ctx context.Context, token string) (*os.File, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "document downloads are not configured")
	}
	documentID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "download token is invalid or expired")
	}
	upload, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document no longer exists")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document file no longer available")
	}
	return file, upload.FileName, nil
}

// Review applies an admin decision to one upload. Approving the last pending
// document moves the application to documents_approved in the same
// transaction; a repeated decision is accepted silently.
func (s *DocumentService) Review(ctx context.Context, actor Actor, documentID string, req dto.ReviewDocumentRequest) (*models.DocumentUpload, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upload, err := s.documents.GetForUpdateTx(ctx, tx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock document")
	}

	// Lock the parent application so concurrent sibling reviews serialize
	// and the cascade sees a consistent snapshot.
	app, err := s.apps.GetForUpdateTx(ctx, tx, upload.ApplicationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock application")
	}

	outcome, err := workflow.CheckDocumentReview(upload.Status, req.Status, req.RejectionReason)
	if err != nil {
		return nil, err
	}
	if outcome == workflow.OutcomeUnchanged {
		return upload, nil
	}

	oldStatus := upload.Status
	now := time.Now().UTC()
	upload.Status = req.Status
	upload.ReviewedAt = &now
	upload.RejectionReason = nil
	if req.Status.IsRejection() {
		reason := strings.TrimSpace(req.RejectionReason)
		upload.RejectionReason = &reason
	}
	if err := s.documents.UpdateReviewTx(ctx, tx, upload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}

	cascaded, err := s.cascadeAllApproved(ctx, tx, app)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit review")
	}

	s.recordAudit(ctx, actor, upload, oldStatus)
	s.invalidateDashboard(ctx)
	s.notifyReview(ctx, app, upload, oldStatus)
	if cascaded {
		s.notifyCascade(ctx, app)
	}

	s.logger.Info("document reviewed",
		zap.String("document_id", upload.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(upload.Status)),
		zap.Bool("application_cascaded", cascaded))
	return upload, nil
}

// cascadeAllApproved moves the application to documents_approved when every
// upload in the locked snapshot is approved. Already-advanced applications
// are left alone so the cascade stays idempotent.
func (s *DocumentService) cascadeAllApproved(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) (bool, error) {
	switch app.Status {
	case models.ApplicationStatusSubmitted,
		models.ApplicationStatusDocumentsPending,
		models.ApplicationStatusDocumentsUnderReview:
	default:
		return false, nil
	}

	uploads, err := s.documents.ListByApplicationTx(ctx, tx, app.ID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read sibling documents")
	}
	if !workflow.AllDocumentsApproved(uploads) {
		return false, nil
	}

	now := time.Now().UTC()
	app.Status = models.ApplicationStatusDocumentsApproved
	app.ReviewedAt = &now
	if err := s.apps.UpdateStatusTx(ctx, tx, app); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance application")
	}
	return true, nil
}

func (s *DocumentService) ensureOwnership(ctx context.Context, actor Actor, studentID string) error {
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

func (s *DocumentService) findRequirement(ctx context.Context, programID, requirementID string) (*models.DocumentRequirement, error) {
	requirements, err := s.programs.ListRequirements(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	for i := range requirements {
		if requirements[i].ID == requirementID {
			return &requirements[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "document requirement not found for this program")
}

func (s *DocumentService) mimeAllowed(mime string) bool {
	for _, allowed := range s.policy.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

func (s *DocumentService) notifyReview(ctx context.Context, app *models.ScholarshipApplication, upload *models.DocumentUpload, oldStatus models.DocumentStatus) {
	if s.notifier == nil {
		return
	}
	profile, err := s.students.FindByID(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient", zap.Error(err))
		return
	}
	requirementName := upload.FileName
	if requirement, err := s.findRequirement(ctx, app.ProgramID, upload.RequirementID); err == nil {
		requirementName = requirement.Name
	}
	reason := ""
	if upload.RejectionReason != nil {
		reason = *upload.RejectionReason
	}
	if intent := workflow.DecideDocumentNotification(profile.UserID, requirementName, oldStatus, upload.Status, reason); intent != nil {
		s.notifier.Notify(ctx, intent)
	}
}

func (s *DocumentService) notifyCascade(ctx context.Context, app *models.ScholarshipApplication) {
	if s.notifier == nil {
		return
	}
	profile, err := s.students.FindByID(ctx, app.StudentID)
	if err != nil {
		s.logger.Warn("failed to resolve notification recipient", zap.Error(err))
		return
	}
	if intent := workflow.DecideApplicationNotification(profile.UserID, models.ApplicationStatusDocumentsUnderReview, app.Status, ""); intent != nil {
		s.notifier.Notify(ctx, intent)
	}
}

func (s *DocumentService) recordAudit(ctx context.Context, actor Actor, upload *models.DocumentUpload, oldStatus models.DocumentStatus) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionDocumentReview,
		Resource:   "document",
		ResourceID: &upload.ID,
		OldValues:  []byte(fmt.Sprintf(`{"status":%q}`, oldStatus)),
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, upload.Status)),
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.Error(err))
	}
}

func (s *DocumentService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCachePattern); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
