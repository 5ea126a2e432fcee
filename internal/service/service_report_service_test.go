package service

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func newReportFixture(t *testing.T, appStatus models.ApplicationStatus, quota int, existing []models.CommunityServiceReport) (*ServiceReportService, *reportRepoStub, *appRepoStub, *notifierStub, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newTxMock(t)

	reports := &reportRepoStub{
		reports: map[string]*models.CommunityServiceReport{},
		byApp:   map[string][]models.CommunityServiceReport{"app-1": existing},
	}
	for i := range existing {
		copied := existing[i]
		reports.reports[copied.ID] = &copied
	}
	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: appStatus},
	}}
	programs := programReaderStub{programs: map[string]*models.ScholarshipProgram{
		"program-1": {ID: "program-1", Active: true, CommunityServiceDays: quota},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	notifier := &notifierStub{}

	svc := NewServiceReportService(reports, apps, programs, students, db, notifier, &auditStub{}, &cacheStub{}, nil, nil)
	return svc, reports, apps, notifier, mock, cleanup
}

func TestServiceReportSubmitRejectsExcessDays(t *testing.T) {
	svc, reports, _, _, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 6, Status: models.ServiceReportStatusApproved},
	})
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1", dto.SubmitServiceReportRequest{
		DaysCompleted: 5,
		Description:   "beach cleanup",
	})
	requireErrorCode(t, err, "QUOTA_EXCEEDED")
	require.Contains(t, err.Error(), "only 4 remain")
	require.Empty(t, reports.created)
}

func TestServiceReportSubmitExactRemainderCompletes(t *testing.T) {
	svc, reports, apps, notifier, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 6, Status: models.ServiceReportStatusApproved},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	report, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1", dto.SubmitServiceReportRequest{
		DaysCompleted: 4,
		Description:   "library shelving",
	})
	require.NoError(t, err)
	require.Equal(t, models.ServiceReportStatusPendingReview, report.Status)
	require.Len(t, reports.created, 1)
	require.Equal(t, models.ApplicationStatusServiceCompleted, apps.apps["app-1"].Status)
	require.Len(t, notifier.intents, 1)
	require.Equal(t, "Application Status Updated", notifier.intents[0].Title)
	require.Contains(t, notifier.intents[0].Message, "Service Completed")
}

func TestServiceReportFirstSubmitMovesEnrolledToPending(t *testing.T) {
	svc, _, apps, notifier, mock, cleanup := newReportFixture(t, models.ApplicationStatusEnrolled, 10, nil)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1", dto.SubmitServiceReportRequest{
		DaysCompleted: 3,
		Description:   "park cleanup",
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusServicePending, apps.apps["app-1"].Status)
	require.Len(t, notifier.intents, 1)
	require.Contains(t, notifier.intents[0].Message, "Service Pending")
}

func TestServiceReportSubmitRefusedOutsideServiceStage(t *testing.T) {
	svc, _, _, _, mock, cleanup := newReportFixture(t, models.ApplicationStatusSubmitted, 10, nil)
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Submit(context.Background(), Actor{UserID: "user-1", Role: models.RoleStudent}, "app-1", dto.SubmitServiceReportRequest{
		DaysCompleted: 3,
		Description:   "park cleanup",
	})
	requireErrorCode(t, err, "CONFLICT")
}

func TestServiceReportReviewRejectionRequiresReason(t *testing.T) {
	svc, reports, _, _, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 6, Status: models.ServiceReportStatusPendingReview},
	})
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "rep-1", dto.ReviewServiceReportRequest{
		Status: models.ServiceReportStatusRejectedHours,
	})
	requireErrorCode(t, err, "MISSING_REJECTION_REASON")
	require.Empty(t, reports.updated)
}

func TestServiceReportReviewRejectionNotifiesWithReason(t *testing.T) {
	svc, _, _, notifier, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 6, Status: models.ServiceReportStatusPendingReview},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	report, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "rep-1", dto.ReviewServiceReportRequest{
		Status:          models.ServiceReportStatusRejectedHours,
		RejectionReason: "hours could not be verified",
	})
	require.NoError(t, err)
	require.NotNil(t, report.ReviewedAt)
	require.Len(t, notifier.intents, 1)
	require.Contains(t, notifier.intents[0].Message, "hours could not be verified")
}

func TestServiceReportRejectionNeverReversesCompletion(t *testing.T) {
	svc, _, apps, _, mock, cleanup := newReportFixture(t, models.ApplicationStatusServiceCompleted, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 10, Status: models.ServiceReportStatusPendingReview},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "rep-1", dto.ReviewServiceReportRequest{
		Status:          models.ServiceReportStatusRejectedOther,
		RejectionReason: "duplicate submission",
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusServiceCompleted, apps.apps["app-1"].Status)
}

func TestServiceReportReviewApprovalReachingQuotaCascades(t *testing.T) {
	svc, _, apps, notifier, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 10, Status: models.ServiceReportStatusPendingReview},
	})
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Review(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "rep-1", dto.ReviewServiceReportRequest{
		Status: models.ServiceReportStatusApproved,
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusServiceCompleted, apps.apps["app-1"].Status)

	// The cascade notifies the stage change on top of the review outcome.
	require.Len(t, notifier.intents, 2)
	require.Contains(t, notifier.intents[0].Message, "report has been approved")
	require.Equal(t, "Application Status Updated", notifier.intents[1].Title)
	require.Contains(t, notifier.intents[1].Message, "Service Completed")
}

func TestServiceReportBulkReviewPartialSuccess(t *testing.T) {
	svc, _, _, notifier, mock, cleanup := newReportFixture(t, models.ApplicationStatusServicePending, 10, []models.CommunityServiceReport{
		{ID: "rep-1", ApplicationID: "app-1", DaysCompleted: 4, Status: models.ServiceReportStatusPendingReview},
		{ID: "rep-2", ApplicationID: "app-1", DaysCompleted: 3, Status: models.ServiceReportStatusPendingReview},
	})
	defer cleanup()
	// one tx per item; rep-missing never reaches commit
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectBegin()
	mock.ExpectCommit()

	results, err := svc.BulkReview(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, dto.BulkReviewServiceReportsRequest{
		ReportIDs: []string{"rep-1", "rep-missing", "rep-2"},
		Status:    models.ServiceReportStatusApproved,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Contains(t, results[1].Error, "not found")
	require.True(t, results[2].Success)

	// One intent per reviewed report; the failed item dispatches nothing
	// and 4+3 of 10 days triggers no stage change.
	require.Len(t, notifier.intents, 2)
	for _, intent := range notifier.intents {
		require.Equal(t, "Community Service Review Update", intent.Title)
	}
}
