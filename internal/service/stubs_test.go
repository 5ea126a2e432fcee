package service

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

// newTxMock returns a db whose only job is handing out transactions for the
// orchestrators; repository calls inside them are stubbed.
func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, appErrors.FromError(err).Code)
}

type appRepoStub struct {
	apps      map[string]*models.ScholarshipApplication
	updated   []models.ScholarshipApplication
	byStudent map[string]*models.ScholarshipApplication
	created   []*models.ScholarshipApplication
	findErr   error
	updateErr error
	lockCalls int
}

func (s *appRepoStub) Create(ctx context.Context, app *models.ScholarshipApplication) error {
	app.ID = "app-new"
	s.created = append(s.created, app)
	return nil
}

func (s *appRepoStub) FindByID(ctx context.Context, id string) (*models.ScholarshipApplication, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if app, ok := s.apps[id]; ok {
		copied := *app
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *appRepoStub) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	app, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ApplicationDetail{ScholarshipApplication: *app}, nil
}

func (s *appRepoStub) FindByStudentAndProgram(ctx context.Context, studentID, programID string) (*models.ScholarshipApplication, error) {
	if app, ok := s.byStudent[studentID+"/"+programID]; ok {
		return app, nil
	}
	return nil, sql.ErrNoRows
}

func (s *appRepoStub) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (s *appRepoStub) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.ScholarshipApplication, error) {
	s.lockCalls++
	return s.FindByID(ctx, id)
}

func (s *appRepoStub) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, app *models.ScholarshipApplication) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, *app)
	if stored, ok := s.apps[app.ID]; ok {
		*stored = *app
	}
	return nil
}

type programReaderStub struct {
	programs map[string]*models.ScholarshipProgram
	err      error
}

func (s programReaderStub) FindByID(ctx context.Context, id string) (*models.ScholarshipProgram, error) {
	if s.err != nil {
		return nil, s.err
	}
	if program, ok := s.programs[id]; ok {
		return program, nil
	}
	return nil, sql.ErrNoRows
}

type studentReaderStub struct {
	profiles map[string]*models.StudentProfile
}

func (s studentReaderStub) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	for _, profile := range s.profiles {
		if profile.ID == id {
			return profile, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s studentReaderStub) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

type docCounterStub struct {
	uploaded int
	required int
}

func (s docCounterStub) CountMandatoryUploaded(ctx context.Context, applicationID string) (int, error) {
	return s.uploaded, nil
}

func (s docCounterStub) CountMandatoryRequirements(ctx context.Context, programID string) (int, error) {
	return s.required, nil
}

type notifierStub struct {
	intents []workflow.NotificationIntent
}

func (s *notifierStub) Notify(ctx context.Context, intent *workflow.NotificationIntent) {
	if intent != nil {
		s.intents = append(s.intents, *intent)
	}
}

type auditStub struct {
	logs []models.AuditLog
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, *log)
	return nil
}

type cacheStub struct {
	invalidated []string
}

func (s *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.invalidated = append(s.invalidated, pattern)
	return nil
}

type docRepoStub struct {
	uploads map[string]*models.DocumentUpload
	byApp   map[string][]models.DocumentUpload
	updated []models.DocumentUpload
}

func (s *docRepoStub) CreateUpload(ctx context.Context, upload *models.DocumentUpload) error {
	upload.ID = "doc-new"
	s.byApp[upload.ApplicationID] = append(s.byApp[upload.ApplicationID], *upload)
	return nil
}

func (s *docRepoStub) FindByID(ctx context.Context, id string) (*models.DocumentUpload, error) {
	if upload, ok := s.uploads[id]; ok {
		copied := *upload
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *docRepoStub) ListByApplication(ctx context.Context, applicationID string) ([]models.DocumentUploadDetail, error) {
	details := make([]models.DocumentUploadDetail, 0, len(s.byApp[applicationID]))
	for _, upload := range s.byApp[applicationID] {
		details = append(details, models.DocumentUploadDetail{DocumentUpload: upload})
	}
	return details, nil
}

func (s *docRepoStub) ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.DocumentUpload, error) {
	return s.byApp[applicationID], nil
}

func (s *docRepoStub) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.DocumentUpload, error) {
	return s.FindByID(ctx, id)
}

func (s *docRepoStub) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, upload *models.DocumentUpload) error {
	s.updated = append(s.updated, *upload)
	if stored, ok := s.uploads[upload.ID]; ok {
		*stored = *upload
	}
	siblings := s.byApp[upload.ApplicationID]
	for i := range siblings {
		if siblings[i].ID == upload.ID {
			siblings[i] = *upload
		}
	}
	return nil
}

type requirementReaderStub struct {
	requirements []models.DocumentRequirement
}

func (s requirementReaderStub) ListRequirements(ctx context.Context, programID string) ([]models.DocumentRequirement, error) {
	return s.requirements, nil
}

type reportRepoStub struct {
	reports map[string]*models.CommunityServiceReport
	byApp   map[string][]models.CommunityServiceReport
	created []models.CommunityServiceReport
	updated []models.CommunityServiceReport
}

func (s *reportRepoStub) CreateTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error {
	report.ID = "rep-new"
	s.created = append(s.created, *report)
	s.byApp[report.ApplicationID] = append(s.byApp[report.ApplicationID], *report)
	return nil
}

func (s *reportRepoStub) FindByID(ctx context.Context, id string) (*models.CommunityServiceReport, error) {
	if report, ok := s.reports[id]; ok {
		copied := *report
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportRepoStub) List(ctx context.Context, filter models.ServiceReportFilter) ([]models.CommunityServiceReport, int, error) {
	reports := s.byApp[filter.ApplicationID]
	return reports, len(reports), nil
}

func (s *reportRepoStub) ListByApplicationTx(ctx context.Context, tx *sqlx.Tx, applicationID string) ([]models.CommunityServiceReport, error) {
	return s.byApp[applicationID], nil
}

func (s *reportRepoStub) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.CommunityServiceReport, error) {
	return s.FindByID(ctx, id)
}

func (s *reportRepoStub) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, report *models.CommunityServiceReport) error {
	s.updated = append(s.updated, *report)
	if stored, ok := s.reports[report.ID]; ok {
		*stored = *report
	}
	siblings := s.byApp[report.ApplicationID]
	for i := range siblings {
		if siblings[i].ID == report.ID {
			siblings[i] = *report
		}
	}
	return nil
}

type disbursementRepoStub struct {
	disbursements map[string]*models.Disbursement
	created       []models.Disbursement
	updated       []models.Disbursement
}

func (s *disbursementRepoStub) CreateTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error {
	d.ID = "disb-new"
	s.created = append(s.created, *d)
	return nil
}

func (s *disbursementRepoStub) FindByID(ctx context.Context, id string) (*models.Disbursement, error) {
	if d, ok := s.disbursements[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *disbursementRepoStub) List(ctx context.Context, filter models.DisbursementFilter) ([]models.Disbursement, int, error) {
	return nil, 0, nil
}

func (s *disbursementRepoStub) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Disbursement, error) {
	return s.FindByID(ctx, id)
}

func (s *disbursementRepoStub) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, d *models.Disbursement) error {
	s.updated = append(s.updated, *d)
	if stored, ok := s.disbursements[d.ID]; ok {
		*stored = *d
	}
	return nil
}
