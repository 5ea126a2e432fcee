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

func newDocumentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

func TestDocumentRepositoryCreateUpload(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO document_uploads")).
		WithArgs(sqlmock.AnyArg(), "app-1", "req-1", "transcript.pdf", "documents/app-1/req-1.pdf", "application/pdf", int64(2048), "pending", nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	upload := &models.DocumentUpload{
		ApplicationID: "app-1",
		RequirementID: "req-1",
		FileName:      "transcript.pdf",
		FilePath:      "documents/app-1/req-1.pdf",
		MIMEType:      "application/pdf",
		SizeBytes:     2048,
		Status:        models.DocumentStatusPending,
	}
	require.NoError(t, repo.CreateUpload(context.Background(), upload))
	require.NotEmpty(t, upload.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateReviewTx(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now().UTC()
	reason := "scan is unreadable"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE document_uploads SET status = $1, rejection_reason = $2, reviewed_at = $3 WHERE id = $4")).
		WithArgs("rejected_unreadable", &reason, &now, "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	upload := &models.DocumentUpload{
		ID:              "doc-1",
		Status:          models.DocumentStatusRejectedUnreadable,
		RejectionReason: &reason,
		ReviewedAt:      &now,
	}
	require.NoError(t, repo.UpdateReviewTx(context.Background(), tx, upload))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListByApplicationTx(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"id", "application_id", "requirement_id", "file_name", "file_path", "mime_type", "size_bytes", "status", "rejection_reason", "uploaded_at", "reviewed_at"}).
		AddRow("doc-1", "app-1", "req-1", "transcript.pdf", "documents/app-1/req-1.pdf", "application/pdf", int64(2048), "approved", nil, time.Now(), time.Now()).
		AddRow("doc-2", "app-1", "req-2", "id-card.jpg", "documents/app-1/req-2.jpg", "image/jpeg", int64(1024), "pending", nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM document_uploads WHERE application_id = $1")).
		WithArgs("app-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	uploads, err := repo.ListByApplicationTx(context.Background(), tx, "app-1")
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	require.Equal(t, models.DocumentStatusApproved, uploads[0].Status)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCountMandatoryUploaded(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT d.requirement_id)")).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountMandatoryUploaded(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
