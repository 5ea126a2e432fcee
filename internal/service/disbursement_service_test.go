package service

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

func newDisbursementFixture(t *testing.T, appStatus models.ApplicationStatus) (*DisbursementService, *disbursementRepoStub, *appRepoStub, *notifierStub, sqlmock.Sqlmock, func()) {
	db, mock, cleanup := newTxMock(t)

	disbursements := &disbursementRepoStub{disbursements: map[string]*models.Disbursement{}}
	apps := &appRepoStub{apps: map[string]*models.ScholarshipApplication{
		"app-1": {ID: "app-1", StudentID: "student-1", ProgramID: "program-1", Status: appStatus},
	}}
	students := studentReaderStub{profiles: map[string]*models.StudentProfile{
		"user-1": {ID: "student-1", UserID: "user-1"},
	}}
	notifier := &notifierStub{}

	svc := NewDisbursementService(disbursements, apps, students, db, notifier, &auditStub{}, &cacheStub{}, nil, nil)
	return svc, disbursements, apps, notifier, mock, cleanup
}

func TestDisbursementCreateRejectsIneligibleApplication(t *testing.T) {
	svc, disbursements, apps, _, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusSubmitted)
	defer cleanup()
	mock.ExpectBegin()

	_, err := svc.Create(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, dto.CreateDisbursementRequest{
		ApplicationID: "app-1",
		Amount:        1500000,
		PaymentMethod: "bank_transfer",
	})
	requireErrorCode(t, err, "INELIGIBLE_FOR_DISBURSEMENT")
	require.Empty(t, disbursements.created)
	require.Empty(t, apps.updated)
}

func TestDisbursementCreateParksApplication(t *testing.T) {
	svc, disbursements, apps, notifier, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusServiceCompleted)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	d, err := svc.Create(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, dto.CreateDisbursementRequest{
		ApplicationID: "app-1",
		Amount:        1500000,
		PaymentMethod: "bank_transfer",
	})
	require.NoError(t, err)
	require.Equal(t, models.DisbursementStatusPending, d.Status)
	require.False(t, d.DisbursementDate.IsZero())
	require.Len(t, disbursements.created, 1)
	require.Equal(t, models.ApplicationStatusDisbursementPending, apps.apps["app-1"].Status)
	require.Len(t, notifier.intents, 1)
	require.Equal(t, "user-1", notifier.intents[0].RecipientID)
}

func TestDisbursementCreateKeepsParkedApplication(t *testing.T) {
	svc, disbursements, apps, _, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusDisbursementPending)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.Create(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, dto.CreateDisbursementRequest{
		ApplicationID: "app-1",
		Amount:        500000,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	require.Len(t, disbursements.created, 1)
	require.Empty(t, apps.updated)
}

func TestDisbursementProcessedAdvancesApplication(t *testing.T) {
	svc, disbursements, apps, notifier, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusDisbursementPending)
	defer cleanup()
	disbursements.disbursements["disb-1"] = &models.Disbursement{
		ID:            "disb-1",
		ApplicationID: "app-1",
		Amount:        1500000,
		Status:        models.DisbursementStatusProcessing,
	}
	mock.ExpectBegin()
	mock.ExpectCommit()

	d, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "disb-1", dto.UpdateDisbursementStatusRequest{
		Status: models.DisbursementStatusProcessed,
	})
	require.NoError(t, err)
	require.Equal(t, models.DisbursementStatusProcessed, d.Status)
	require.Equal(t, models.ApplicationStatusDisbursementDone, apps.apps["app-1"].Status)
	require.NotNil(t, apps.apps["app-1"].ReviewedAt)
	require.Len(t, notifier.intents, 1)
}

func TestDisbursementProcessedLeavesTerminalApplication(t *testing.T) {
	svc, disbursements, apps, notifier, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusCompleted)
	defer cleanup()
	disbursements.disbursements["disb-1"] = &models.Disbursement{
		ID:            "disb-1",
		ApplicationID: "app-1",
		Status:        models.DisbursementStatusProcessing,
	}
	mock.ExpectBegin()
	mock.ExpectCommit()

	_, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "disb-1", dto.UpdateDisbursementStatusRequest{
		Status: models.DisbursementStatusProcessed,
	})
	require.NoError(t, err)
	require.Equal(t, models.ApplicationStatusCompleted, apps.apps["app-1"].Status)
	require.Empty(t, apps.updated)
	require.Empty(t, notifier.intents)
}

func TestDisbursementRepeatedStatusIsSilent(t *testing.T) {
	svc, disbursements, apps, notifier, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusDisbursementPending)
	defer cleanup()
	disbursements.disbursements["disb-1"] = &models.Disbursement{
		ID:            "disb-1",
		ApplicationID: "app-1",
		Status:        models.DisbursementStatusProcessing,
	}
	mock.ExpectBegin()

	d, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "disb-1", dto.UpdateDisbursementStatusRequest{
		Status: models.DisbursementStatusProcessing,
	})
	require.NoError(t, err)
	require.Equal(t, models.DisbursementStatusProcessing, d.Status)
	require.Empty(t, disbursements.updated)
	require.Empty(t, apps.updated)
	require.Empty(t, notifier.intents)
}

func TestDisbursementUpdateRejectsUnknownStatus(t *testing.T) {
	svc, disbursements, _, _, mock, cleanup := newDisbursementFixture(t, models.ApplicationStatusDisbursementPending)
	defer cleanup()
	disbursements.disbursements["disb-1"] = &models.Disbursement{
		ID:            "disb-1",
		ApplicationID: "app-1",
		Status:        models.DisbursementStatusPending,
	}
	mock.ExpectBegin()

	_, err := svc.UpdateStatus(context.Background(), Actor{UserID: "admin-1", Role: models.RoleAdmin}, "disb-1", dto.UpdateDisbursementStatusRequest{
		Status: models.DisbursementStatus("wired"),
	})
	requireErrorCode(t, err, "INVALID_STATUS")
	require.Empty(t, disbursements.updated)
}
