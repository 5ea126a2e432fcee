// Package workflow implements the scholarship status engine: transition
// rules, aggregation rules, and the notification decision layer. Everything
// here is a pure function over in-memory snapshots so the rules can be
// tested without a database.
package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

// Outcome tells the orchestrator how to treat a validated transition.
type Outcome int

const (
	// OutcomeApply means the transition changes state and must be persisted.
	OutcomeApply Outcome = iota
	// OutcomeUnchanged flags a no-op transition: allowed, but no
	// notification fires and no cascade recompute runs.
	OutcomeUnchanged
)

// CheckApplicationTransition validates an admin-initiated application status
// change. Administrators may move among the full vocabulary; only statuses
// outside the vocabulary are refused.
func CheckApplicationTransition(current, requested models.ApplicationStatus) (Outcome, error) {
	if !requested.Valid() {
		return OutcomeApply, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("%q is not a valid application status", requested))
	}
	if current == requested {
		return OutcomeUnchanged, nil
	}
	return OutcomeApply, nil
}

// CanSubmitApplication validates a student-initiated submission: only from
// draft, and only once every mandatory requirement has an upload.
func CanSubmitApplication(current models.ApplicationStatus, uploadedMandatory, requiredMandatory int) error {
	if current != models.ApplicationStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("application in status %q cannot be submitted", current))
	}
	if uploadedMandatory < requiredMandatory {
		missing := requiredMandatory - uploadedMandatory
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%d required document(s) still missing", missing))
	}
	return nil
}

// CheckProgramEligibility validates the student profile against the
// program's eligibility filters. Zero-valued filters are not enforced.
func CheckProgramEligibility(profile *models.StudentProfile, program *models.ScholarshipProgram) error {
	if program.EligibleSchoolType != "" && profile.SchoolType != program.EligibleSchoolType {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("program is limited to %s schools", program.EligibleSchoolType))
	}
	if program.MinGPA > 0 && profile.GPA < program.MinGPA {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("GPA %.2f is below the program minimum of %.2f", profile.GPA, program.MinGPA))
	}
	if program.MinUnits > 0 && profile.UnitsCompleted < program.MinUnits {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%d unit(s) completed is below the program minimum of %d", profile.UnitsCompleted, program.MinUnits))
	}
	return nil
}

// CanSubmitServiceReport validates that the application accepts community
// service reports in its current status.
func CanSubmitServiceReport(current models.ApplicationStatus) error {
	switch current {
	case models.ApplicationStatusEnrolled, models.ApplicationStatusServicePending:
		return nil
	}
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("application in status %q does not accept service reports", current))
}

// CheckDocumentReview validates a document review decision. Rejection
// variants require a non-empty reason.
func CheckDocumentReview(current, requested models.DocumentStatus, reason string) (Outcome, error) {
	if !requested.Valid() {
		return OutcomeApply, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("%q is not a valid document status", requested))
	}
	if requested.IsRejection() && strings.TrimSpace(reason) == "" {
		return OutcomeApply, appErrors.ErrMissingRejectionReason
	}
	if current == requested {
		return OutcomeUnchanged, nil
	}
	return OutcomeApply, nil
}

// CheckServiceReportReview validates a service report review decision.
func CheckServiceReportReview(current, requested models.ServiceReportStatus, reason string) (Outcome, error) {
	if !requested.Valid() {
		return OutcomeApply, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("%q is not a valid service report status", requested))
	}
	if requested.IsRejection() && strings.TrimSpace(reason) == "" {
		return OutcomeApply, appErrors.ErrMissingRejectionReason
	}
	if current == requested {
		return OutcomeUnchanged, nil
	}
	return OutcomeApply, nil
}

// CheckDisbursementStatus validates a requested disbursement status value.
func CheckDisbursementStatus(current, requested models.DisbursementStatus) (Outcome, error) {
	if !requested.Valid() {
		return OutcomeApply, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("%q is not a valid disbursement status", requested))
	}
	if current == requested {
		return OutcomeUnchanged, nil
	}
	return OutcomeApply, nil
}

// disbursementEligible is the application status subset that permits
// creating disbursements.
var disbursementEligible = map[models.ApplicationStatus]struct{}{
	models.ApplicationStatusDocumentsApproved:   {},
	models.ApplicationStatusEligibilityVerified: {},
	models.ApplicationStatusEnrolled:            {},
	models.ApplicationStatusServiceCompleted:    {},
	models.ApplicationStatusDisbursementPending: {},
}

// CanCreateDisbursement validates the parent application status before a
// disbursement row may be created.
func CanCreateDisbursement(current models.ApplicationStatus) error {
	if _, ok := disbursementEligible[current]; ok {
		return nil
	}
	return appErrors.Clone(appErrors.ErrIneligibleForDisbursement, fmt.Sprintf("application in status %q is not eligible for disbursement", current))
}
