package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func newApplicationFixture(t *testing.T, status models.ApplicationStatus) (*ApplicationService, *appRepoStub, *notifierStub, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newTxMock(t)

	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: status},
	}}
	programs := programReaderStub{programs: map[string]*models.ScholarshipProgram{
		"program-1": {
			ID:                   "program-1",
			Active:               true,
			CommunityServiceDays: 10,
			ApplicationDeadline:  time.Now().UTC().Add(24 * time.Hour),
		},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1", NIS: "12345"},
	}}
	notifier := &notifierStub{}

	svc := NewApplicationService(apps, programs, students, docCounterStub{uploaded: 2, required: 2}, db, notifier, &auditStub{}, &cacheStub{}, nil, nil)
	return svc, apps, notifier, mock, cleanup
}

func TestApplicationUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, apps, notifier, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusSubmitted)
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "app-1", dto.UpdateApplicationStatusRequest{Status: "archived"})
	requireErrorCode(t, err, "INVALID_STATUS")
	require.Empty(t, apps.updated)
	require.Empty(t, notifier.intents)
}

func TestApplicationUpdateStatusNoOpStaysSilent(t *testing.T) {
	svc, apps, notifier, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusEnrolled)
	defer cleanup()
	mock.ExpectBegin()

	app, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "app-1", dto.UpdateApplicationStatusRequest{Status: models.ApplicationStatusEnrolled})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusEnrolled, app.Status)
	require.Nil(t, app.ReviewedAt)
	require.Empty(t, apps.updated)
	require.Empty(t, notifier.intents)
}

func TestApplicationUpdateStatusPersistsAndNotifies(t *testing.T) {
	svc, apps, notifier, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusDocumentsApproved)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	app, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "app-1", dto.UpdateApplicationStatusRequest{
		Status:     models.ApplicationStatusEligibilityVerified,
		AdminNotes: "transcripts verified",
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusEligibilityVerified, app.Status)
	require.NotNil(t, app.ReviewedAt)
	require.Len(t, apps.updated, 1)

	require.Len(t, notifier.intents, 1)
	require.Equal(t, "user-1", notifier.intents[0].RecipientID)
	require.Contains(t, notifier.intents[0].Message, "Eligibility Verified")
	require.Contains(t, notifier.intents[0].Message, "transcripts verified")
}

func TestApplicationSubmitRequiresMandatoryDocuments(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: models.ApplicationStatusDraft},
	}}
	programs := programReaderStub{programs: map[string]*models.ScholarshipProgram{
		"program-1": {ID: "program-1", Active: true, ApplicationDeadline: time.Now().UTC().Add(24 * time.Hour)},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	svc := NewApplicationService(apps, programs, students, docCounterStub{uploaded: 1, required: 3}, db, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1")
	requireErrorCode(t, err, "VALIDATION_ERROR")
	require.Empty(t, apps.updated)
}

func TestApplicationSubmitRejectsIneligibleProfile(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()

	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: models.ApplicationStatusDraft},
	}}
	programs := programReaderStub{programs: map[string]*models.ScholarshipProgram{
		"program-1": {ID: "program-1", Active: true, MinGPA: 3.2, ApplicationDeadline: time.Now().UTC().Add(24 * time.Hour)},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1", GPA: 2.8},
	}}
	svc := NewApplicationService(apps, programs, students, docCounterStub{uploaded: 2, required: 2}, db, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1")
	requireErrorCode(t, err, "VALIDATION_ERROR")
	require.Empty(t, apps.updated)
}

func TestApplicationSubmitFromDraft(t *testing.T) {
	svc, apps, _, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusDraft)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	app, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1")
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	require.NotNil(t, app.SubmittedAt)
	require.Len(t, apps.updated, 1)
}

func TestApplicationSubmitNotFromOtherStatus(t *testing.T) {
	svc, _, _, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusEnrolled)
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1")
	requireErrorCode(t, err, "CONFLICT")
}

func TestApplicationSubmitForbiddenForOtherStudent(t *testing.T) {
	svc, _, _, mock, cleanup := newApplicationFixture(t, models.ApplicationStatusDraft)
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Submit(context.Background(), Actor{UserID: "user-2", Role: models.RoleStudent}, "app-1")
	requireErrorCode(t, err, "FORBIDDEN")
}

func TestApplicationCreateRejectsDuplicate(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	existing := &models.ScholarshipApplication{ID: "app-1", StudentID: "student-1", ProgramID: "program-1"}
	apps := &appRepoStub{
		apps:      map[string]*models.ScholarshipApplication{"app-1": existing},
		byStudent: map[string]*models.ScholarshipApplication{"student-1/program-1": existing},
	}
	programs := programReaderStub{programs: map[string]*models.ScholarshipProgram{
		"program-1": {ID: "program-1", Active: true},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	svc := NewApplicationService(apps, programs, students, docCounterStub{}, db, nil, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, dto.CreateApplicationRequest{ProgramID: "program-1"})
	requireErrorCode(t, err, "CONFLICT")
}
