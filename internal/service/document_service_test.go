package service

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func newDocumentFixture(t *testing.T, appStatus models.ApplicationStatus, uploads []models.DocumentUpload) (*DocumentService, *docRepoStub, *appRepoStub, *notifierStub, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newTxMock(t)

	docs := &docRepoStub{
		uploads: map[string]*models.DocumentUpload{},
		byApp:   map[string][]models.DocumentUpload{"app-1": uploads},
	}
	for i := range uploads {
		copied := uploads[i]
		docs.uploads[copied.ID] = &copied
	}
	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: appStatus},
	}}
	requirements := requirementReaderStub{requirements: []models.DocumentRequirement{
		{ID: "req-1", ProgramID: "program-1", Name: "Transcript", Mandatory: true},
		{ID: "req-2", ProgramID: "program-1", Name: "ID Card", Mandatory: true},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	notifier := &notifierStub{}

	svc := NewDocumentService(docs, apps, requirements, students, nil, nil, db, notifier, &auditStub{}, &cacheStub{}, DocumentPolicy{}, nil, nil)
	return svc, docs, apps, notifier, mock, cleanup
}

func TestDocumentReviewRejectionRequiresReason(t *testing.T) {
	svc, docs, _, notifier, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsUnderReview, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusPending},
	})
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusRejectedUnreadable,
	})
	requireErrorCode(t, err, "MISSING_REJECTION_REASON")
	require.Empty(t, docs.updated)
	require.Empty(t, notifier.intents)
}

func TestDocumentReviewRejectionCarriesReason(t *testing.T) {
	svc, docs, _, notifier, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsUnderReview, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusPending},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	upload, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-1", dto.ReviewDocumentRequest{
		Status:          models.DocumentStatusRejectedUnreadable,
		RejectionReason: "scan is blurry",
	})
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusRejectedUnreadable, upload.Status)
	require.NotNil(t, upload.RejectionReason)
	require.Len(t, docs.updated, 1)

	require.Len(t, notifier.intents, 1)
	require.Contains(t, notifier.intents[0].Message, "scan is blurry")
	require.Contains(t, notifier.intents[0].Message, "Transcript")
}

func TestDocumentReviewLastApprovalCascades(t *testing.T) {
	svc, _, apps, notifier, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsUnderReview, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusApproved},
		{ID: "doc-2", ApplicationID: "app-1", RequirementID: "req-2", Status: models.DocumentStatusPending},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-2", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusApproved,
	})
	require.NoError(t, err)

	require.Equal(t, models.ApplicationStatusDocumentsApproved, apps.apps["app-1"].Status)
	// one document intent plus one application cascade intent
	require.Len(t, notifier.intents, 2)
}

func TestDocumentReviewPartialApprovalDoesNotCascade(t *testing.T) {
	svc, _, apps, _, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsUnderReview, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusPending},
		{ID: "doc-2", ApplicationID: "app-1", RequirementID: "req-2", Status: models.DocumentStatusPending},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusDocumentsUnderReview, apps.apps["app-1"].Status)
}

func TestDocumentReviewNoOpStaysSilent(t *testing.T) {
	svc, docs, _, notifier, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsUnderReview, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusApproved},
	})
	defer cleanup()
	mock.ExpectBegin()

	upload, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-1", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.DocumentStatusApproved, upload.Status)
	require.Nil(t, upload.ReviewedAt)
	require.Empty(t, docs.updated)
	require.Empty(t, notifier.intents)
}

func TestDocumentCascadeDoesNotRunTwice(t *testing.T) {
	svc, _, apps, _, mock, cleanup := newDocumentFixture(t, models.ApplicationStatusDocumentsApproved, []models.DocumentUpload{
		{ID: "doc-1", ApplicationID: "app-1", RequirementID: "req-1", Status: models.DocumentStatusApproved},
		{ID: "doc-2", ApplicationID: "app-1", RequirementID: "req-2", Status: models.DocumentStatusPending},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	// Application already advanced; reviewing a straggler upload must not
	// touch its status again.
	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "doc-2", dto.ReviewDocumentRequest{
		Status: models.DocumentStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusDocumentsApproved, apps.apps["app-1"].Status)
	require.Empty(t, apps.updated)
}
