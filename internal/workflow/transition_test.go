package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, code, appErr.Code)
}

func TestCheckApplicationTransition(t *testing.T) {
	outcome, err := CheckApplicationTransition(models.ApplicationStatusSubmitted, models.ApplicationStatusDocumentsUnderReview)
	require.NoError(t, err)
	require.Equal(t, OutcomeApply, outcome)

	// no-op transitions are allowed but flagged
	outcome, err = CheckApplicationTransition(models.ApplicationStatusDocumentsApproved, models.ApplicationStatusDocumentsApproved)
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, outcome)

	// admins may move backwards through the lifecycle
	outcome, err = CheckApplicationTransition(models.ApplicationStatusEnrolled, models.ApplicationStatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, OutcomeApply, outcome)

	_, err = CheckApplicationTransition(models.ApplicationStatusDraft, models.ApplicationStatus("waitlisted"))
	requireErrorCode(t, err, appErrors.ErrInvalidStatus.Code)
}

func TestCanSubmitApplication(t *testing.T) {
	require.NoError(t, CanSubmitApplication(models.ApplicationStatusDraft, 2, 2))

	err := CanSubmitApplication(models.ApplicationStatusDraft, 1, 2)
	requireErrorCode(t, err, appErrors.ErrValidation.Code)

	err = CanSubmitApplication(models.ApplicationStatusSubmitted, 2, 2)
	requireErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestCheckProgramEligibility(t *testing.T) {
	program := &models.ScholarshipProgram{
		EligibleSchoolType: models.SchoolTypePublic,
		MinGPA:             3.0,
		MinUnits:           24,
	}

	require.NoError(t, CheckProgramEligibility(&models.StudentProfile{
		SchoolType: models.SchoolTypePublic, GPA: 3.4, UnitsCompleted: 30,
	}, program))

	err := CheckProgramEligibility(&models.StudentProfile{
		SchoolType: models.SchoolTypePrivate, GPA: 3.4, UnitsCompleted: 30,
	}, program)
	requireErrorCode(t, err, appErrors.ErrValidation.Code)

	err = CheckProgramEligibility(&models.StudentProfile{
		SchoolType: models.SchoolTypePublic, GPA: 2.9, UnitsCompleted: 30,
	}, program)
	requireErrorCode(t, err, appErrors.ErrValidation.Code)
	require.Contains(t, err.Error(), "below the program minimum")

	err = CheckProgramEligibility(&models.StudentProfile{
		SchoolType: models.SchoolTypePublic, GPA: 3.4, UnitsCompleted: 12,
	}, program)
	requireErrorCode(t, err, appErrors.ErrValidation.Code)

	// unset filters are not enforced
	require.NoError(t, CheckProgramEligibility(&models.StudentProfile{}, &models.ScholarshipProgram{}))
}

func TestCanSubmitServiceReport(t *testing.T) {
	require.NoError(t, CanSubmitServiceReport(models.ApplicationStatusEnrolled))
	require.NoError(t, CanSubmitServiceReport(models.ApplicationStatusServicePending))

	err := CanSubmitServiceReport(models.ApplicationStatusSubmitted)
	requireErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestCheckDocumentReview(t *testing.T) {
	tests := []struct {
		name      string
		current   models.DocumentStatus
		requested models.DocumentStatus
		reason    string
		outcome   Outcome
		errCode   string
	}{
		{name: "approve pending", current: models.DocumentStatusPending, requested: models.DocumentStatusApproved, outcome: OutcomeApply},
		{name: "reject with reason", current: models.DocumentStatusPending, requested: models.DocumentStatusRejectedInvalid, reason: "signature missing", outcome: OutcomeApply},
		{name: "reject without reason", current: models.DocumentStatusPending, requested: models.DocumentStatusRejectedInvalid, errCode: appErrors.ErrMissingRejectionReason.Code},
		{name: "reject with blank reason", current: models.DocumentStatusPending, requested: models.DocumentStatusRejectedOther, reason: "   ", errCode: appErrors.ErrMissingRejectionReason.Code},
		{name: "no-op", current: models.DocumentStatusApproved, requested: models.DocumentStatusApproved, outcome: OutcomeUnchanged},
		{name: "unknown status", current: models.DocumentStatusPending, requested: models.DocumentStatus("lost"), errCode: appErrors.ErrInvalidStatus.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := CheckDocumentReview(tt.current, tt.requested, tt.reason)
			if tt.errCode != "" {
				requireErrorCode(t, err, tt.errCode)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestCheckServiceReportReview(t *testing.T) {
	outcome, err := CheckServiceReportReview(models.ServiceReportStatusPendingReview, models.ServiceReportStatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeApply, outcome)

	_, err = CheckServiceReportReview(models.ServiceReportStatusPendingReview, models.ServiceReportStatusRejectedHours, "")
	requireErrorCode(t, err, appErrors.ErrMissingRejectionReason.Code)

	outcome, err = CheckServiceReportReview(models.ServiceReportStatusApproved, models.ServiceReportStatusApproved, "")
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, outcome)
}

func TestCanCreateDisbursement(t *testing.T) {
	eligible := []models.ApplicationStatus{
		models.ApplicationStatusDocumentsApproved,
		models.ApplicationStatusEligibilityVerified,
		models.ApplicationStatusEnrolled,
		models.ApplicationStatusServiceCompleted,
		models.ApplicationStatusDisbursementPending,
	}
	for _, status := range eligible {
		require.NoError(t, CanCreateDisbursement(status), string(status))
	}

	for _, status := range []models.ApplicationStatus{
		models.ApplicationStatusDraft,
		models.ApplicationStatusSubmitted,
		models.ApplicationStatusRejected,
		models.ApplicationStatusCompleted,
	} {
		err := CanCreateDisbursement(status)
		requireErrorCode(t, err, appErrors.ErrIneligibleForDisbursement.Code)
	}
}
