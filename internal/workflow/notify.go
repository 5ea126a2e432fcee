package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
)

// NotificationIntent is the decision output handed to the dispatcher.
// Delivery (channel, retries, envelope) is owned by the dispatcher.
type NotificationIntent struct {
	RecipientID string
	Title       string
	Message     string
}

// DecideApplicationNotification returns the intent for an application status
// change, or nil when nothing changed.
func DecideApplicationNotification(recipientID string, oldStatus, newStatus models.ApplicationStatus, adminNote string) *NotificationIntent {
	if oldStatus == newStatus {
		return nil
	}
	message := fmt.Sprintf("Your scholarship application status is now %s.", newStatus.Label())
	if note := strings.TrimSpace(adminNote); note != "" {
		message += fmt.Sprintf(" Note from the administrator: %s", note)
	}
	return &NotificationIntent{
		RecipientID: recipientID,
		Title:       "Application Status Updated",
		Message:     message,
	}
}

// DecideDocumentNotification returns the intent for a document review
// outcome, or nil when nothing changed. Rejections carry the literal reason.
func DecideDocumentNotification(recipientID, requirementName string, oldStatus, newStatus models.DocumentStatus, reason string) *NotificationIntent {
	if oldStatus == newStatus {
		return nil
	}
	var message string
	switch {
	case newStatus.IsRejection():
		message = fmt.Sprintf("Your document %q was rejected (%s). Reason: %s", requirementName, newStatus.Label(), reason)
	case newStatus == models.DocumentStatusApproved:
		message = fmt.Sprintf("Your document %q has been approved.", requirementName)
	default:
		message = fmt.Sprintf("Your document %q is now %s.", requirementName, newStatus.Label())
	}
	return &NotificationIntent{
		RecipientID: recipientID,
		Title:       "Document Review Update",
		Message:     message,
	}
}

// DecideServiceReportNotification returns the intent for a service report
// review outcome, or nil when nothing changed.
func DecideServiceReportNotification(recipientID string, oldStatus, newStatus models.ServiceReportStatus, reason, adminNotes string) *NotificationIntent {
	if oldStatus == newStatus {
		return nil
	}
	var message string
	switch {
	case newStatus.IsRejection():
		message = fmt.Sprintf("Your community service report was rejected (%s). Reason: %s", newStatus.Label(), reason)
	case newStatus == models.ServiceReportStatusApproved:
		message = "Your community service report has been approved."
		if notes := strings.TrimSpace(adminNotes); notes != "" {
			message += fmt.Sprintf(" Note from the administrator: %s", notes)
		}
	default:
		message = fmt.Sprintf("Your community service report is now %s.", newStatus.Label())
	}
	return &NotificationIntent{
		RecipientID: recipientID,
		Title:       "Community Service Review Update",
		Message:     message,
	}
}
