package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func TestDecideApplicationNotification(t *testing.T) {
	intent := DecideApplicationNotification("student-1", models.ApplicationStatusDocumentsUnderReview, models.ApplicationStatusDocumentsApproved, "")
	require.NotNil(t, intent)
	require.Equal(t, "student-1", intent.RecipientID)
	require.Contains(t, intent.Message, "Documents Approved")

	intent = DecideApplicationNotification("student-1", models.ApplicationStatusSubmitted, models.ApplicationStatusEnrolled, "welcome aboard")
	require.NotNil(t, intent)
	require.Contains(t, intent.Message, "Enrolled")
	require.Contains(t, intent.Message, "welcome aboard")

	require.Nil(t, DecideApplicationNotification("student-1", models.ApplicationStatusEnrolled, models.ApplicationStatusEnrolled, "note"))
}

func TestDecideDocumentNotification(t *testing.T) {
	intent := DecideDocumentNotification("student-1", "Transcript", models.DocumentStatusPending, models.DocumentStatusRejectedUnreadable, "scan is blurry")
	require.NotNil(t, intent)
	require.Contains(t, intent.Message, "scan is blurry")
	require.Contains(t, intent.Message, "Transcript")

	intent = DecideDocumentNotification("student-1", "Transcript", models.DocumentStatusPending, models.DocumentStatusApproved, "")
	require.NotNil(t, intent)
	require.Contains(t, intent.Message, "approved")

	require.Nil(t, DecideDocumentNotification("student-1", "Transcript", models.DocumentStatusApproved, models.DocumentStatusApproved, ""))
}

func TestDecideServiceReportNotification(t *testing.T) {
	intent := DecideServiceReportNotification("student-1", models.ServiceReportStatusPendingReview, models.ServiceReportStatusRejectedIncomplete, "no attendance sheet", "")
	require.NotNil(t, intent)
	require.Contains(t, intent.Message, "no attendance sheet")

	intent = DecideServiceReportNotification("student-1", models.ServiceReportStatusPendingReview, models.ServiceReportStatusApproved, "", "great work")
	require.NotNil(t, intent)
	require.Contains(t, intent.Message, "approved")
	require.Contains(t, intent.Message, "great work")

	require.Nil(t, DecideServiceReportNotification("student-1", models.ServiceReportStatusApproved, models.ServiceReportStatusApproved, "", ""))
}
