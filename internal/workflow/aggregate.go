package workflow

import (
	"fmt"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

// AllDocumentsApproved reports whether every upload in the snapshot is
// exactly approved. An empty snapshot never counts as complete.
func AllDocumentsApproved(uploads []models.DocumentUpload) bool {
	if len(uploads) == 0 {
		return false
	}
	for _, upload := range uploads {
		if upload.Status != models.DocumentStatusApproved {
			return false
		}
	}
	return true
}

// ServiceDaysCompleted sums reported days across the snapshot. Reports in a
// rejection status stop counting; pending and approved reports both count
// (optimistic progress while review is outstanding).
func ServiceDaysCompleted(reports []models.CommunityServiceReport) int {
	total := 0
	for _, report := range reports {
		if report.Status.IsRejection() {
			continue
		}
		total += report.DaysCompleted
	}
	return total
}

// QuotaMet reports whether the completed days reach the program quota.
// A non-positive quota never auto-completes.
func QuotaMet(reports []models.CommunityServiceReport, quota int) bool {
	if quota <= 0 {
		return false
	}
	return ServiceDaysCompleted(reports) >= quota
}

// RemainingDays returns how many service days are still outstanding.
func RemainingDays(reports []models.CommunityServiceReport, quota int) int {
	remaining := quota - ServiceDaysCompleted(reports)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CheckReportedDays validates a new report against the remaining quota
// before anything is persisted. The error message carries the computed
// remainder so the caller can correct input.
func CheckReportedDays(reports []models.CommunityServiceReport, quota, days int) error {
	if days <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "days_completed must be positive")
	}
	remaining := RemainingDays(reports, quota)
	if days > remaining {
		return appErrors.Clone(appErrors.ErrQuotaExceeded, fmt.Sprintf("reported %d day(s) but only %d remain of the %d-day quota", days, remaining, quota))
	}
	return nil
}
