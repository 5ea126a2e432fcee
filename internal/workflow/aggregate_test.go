package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

func docs(statuses ...models.DocumentStatus) []models.DocumentUpload {
	uploads := make([]models.DocumentUpload, len(statuses))
	for i, s := range statuses {
		uploads[i] = models.DocumentUpload{ID: string(rune('a' + i)), Status: s}
	}
	return uploads
}

func reports(days ...int) []models.CommunityServiceReport {
	result := make([]models.CommunityServiceReport, len(days))
	for i, d := range days {
		result[i] = models.CommunityServiceReport{DaysCompleted: d, Status: models.ServiceReportStatusPendingReview}
	}
	return result
}

func TestAllDocumentsApproved(t *testing.T) {
	require.False(t, AllDocumentsApproved(nil))
	require.False(t, AllDocumentsApproved(docs(models.DocumentStatusPending, models.DocumentStatusApproved)))
	require.False(t, AllDocumentsApproved(docs(models.DocumentStatusApproved, models.DocumentStatusRejectedInvalid)))
	require.True(t, AllDocumentsApproved(docs(models.DocumentStatusApproved, models.DocumentStatusApproved)))
}

func TestServiceDaysCompletedSkipsRejected(t *testing.T) {
	items := reports(6, 4)
	items[1].Status = models.ServiceReportStatusRejectedHours
	require.Equal(t, 6, ServiceDaysCompleted(items))

	items[1].Status = models.ServiceReportStatusApproved
	require.Equal(t, 10, ServiceDaysCompleted(items))
}

func TestServiceDaysCompletedStable(t *testing.T) {
	items := reports(3, 2)
	first := ServiceDaysCompleted(items)
	second := ServiceDaysCompleted(items)
	require.Equal(t, first, second)
}

func TestQuotaMet(t *testing.T) {
	require.False(t, QuotaMet(reports(6), 10))
	require.True(t, QuotaMet(reports(6, 4), 10))
	require.True(t, QuotaMet(reports(11), 10))
	require.False(t, QuotaMet(reports(5), 0))
}

func TestRemainingDays(t *testing.T) {
	require.Equal(t, 10, RemainingDays(nil, 10))
	require.Equal(t, 4, RemainingDays(reports(6), 10))
	require.Equal(t, 0, RemainingDays(reports(12), 10))
}

func TestCheckReportedDays(t *testing.T) {
	// exactly the remainder succeeds
	require.NoError(t, CheckReportedDays(reports(6), 10, 4))

	// one day over the remainder fails with the remainder in the message
	err := CheckReportedDays(reports(6), 10, 5)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrQuotaExceeded.Code, appErr.Code)
	require.Contains(t, appErr.Message, "only 4 remain")

	err = CheckReportedDays(nil, 10, 0)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
