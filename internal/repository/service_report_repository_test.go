package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func newServiceReportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestServiceReportRepositoryCreateTx(t *testing.T) {
	db, mock, cleanup := newServiceReportRepoMock(t)
	defer cleanup()
	repo := NewServiceReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO community_service_reports")).
		WithArgs(sqlmock.AnyArg(), "app-1", 5, "library shelving", "pending_review", nil, nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	report := &models.CommunityServiceReport{
		ApplicationID: "app-1",
		DaysCompleted: 5,
		Description:   "library shelving",
		Status:        models.ServiceReportStatusPendingReview,
	}
	require.NoError(t, repo.CreateTx(context.Background(), tx, report))
	require.NotEmpty(t, report.ID)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceReportRepositoryListByApplicationTx(t *testing.T) {
	db, mock, cleanup := newServiceReportRepoMock(t)
	defer cleanup()
	repo := NewServiceReportRepository(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "application_id", "days_completed", "description", "status", "rejection_reason", "admin_notes", "submitted_at", "reviewed_at"}).
		AddRow("rep-1", "app-1", 5, "library shelving", "approved", nil, nil, time.Now(), time.Now()).
		AddRow("rep-2", "app-1", 3, "park cleanup", "pending_review", nil, nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM community_service_reports WHERE application_id = $1")).
		WithArgs("app-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	reports, err := repo.ListByApplicationTx(context.Background(), tx, "app-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceReportRepositoryUpdateReviewTx(t *testing.T) {
	db, mock, cleanup := newServiceReportRepoMock(t)
	defer cleanup()
	repo := NewServiceReportRepository(db)

	now := time.Now().UTC()
	reason := "hours could not be verified"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE community_service_reports SET status =")).
		WithArgs("rejected_insufficient_hours", &reason, nil, &now, "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	report := &models.CommunityServiceReport{
		ID:              "rep-1",
		Status:          models.ServiceReportStatusRejectedHours,
		RejectionReason: &reason,
		ReviewedAt:      &now,
	}
	require.NoError(t, repo.UpdateReviewTx(context.Background(), tx, report))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
