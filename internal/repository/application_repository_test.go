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

func newApplicationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()

	repo := NewApplicationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scholarship_applications")).
		WithArgs(sqlmock.AnyArg(), "student-1", "program-1", "draft", nil, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	app := &models.ScholarshipApplication{
		StudentID: "student-1",
		ProgramID: "program-1",
		Status:    models.ApplicationStatusDraft,
	}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)

	rows := sqlmock.NewRows([]string{"id", "student_id", "program_id", "status", "admin_notes", "submitted_at", "reviewed_at", "created_at", "updated_at"}).
		AddRow(app.ID, "student-1", "program-1", "draft", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, program_id, status, admin_notes, submitted_at, reviewed_at, created_at, updated_at FROM scholarship_applications WHERE id = $1")).
		WithArgs(app.ID).
		WillReturnRows(rows)

	fetched, err := repo.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusDraft, fetched.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryGetForUpdateTx(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "student_id", "program_id", "status", "admin_notes", "submitted_at", "reviewed_at", "created_at", "updated_at"}).
		AddRow("app-1", "student-1", "program-1", "enrolled", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, program_id, status, admin_notes, submitted_at, reviewed_at, created_at, updated_at FROM scholarship_applications WHERE id = $1 FOR UPDATE")).
		WithArgs("app-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	app, err := repo.GetForUpdateTx(context.Background(), tx, "app-1")
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusEnrolled, app.Status)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryUpdateStatusTx(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE scholarship_applications SET status =")).
		WithArgs("service_completed", nil, nil, nil, sqlmock.AnyArg(), "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	app := &models.ScholarshipApplication{ID: "app-1", Status: models.ApplicationStatusServiceCompleted}
	require.NoError(t, repo.UpdateStatusTx(context.Background(), tx, app))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCountByProgramAndStatuses(t *testing.T) {
	db, mock, cleanup := newApplicationRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM scholarship_applications WHERE program_id = $1 AND status IN ($2, $3)")).
		WithArgs("program-1", models.ApplicationStatusEnrolled, models.ApplicationStatusServicePending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountByProgramAndStatuses(context.Background(), "program-1", []models.ApplicationStatus{
		models.ApplicationStatusEnrolled,
		models.ApplicationStatusServicePending,
	})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
