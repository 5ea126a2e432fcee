package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-beasiswa-api/internal/models"
	"github.com/noah-isme/sma-beasiswa-api/internal/workflow"
	appErrors "github.com/noah-isme/sma-beasiswa-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int, error)
	PruneOld(ctx context.Context, recipientID string, keep int) error
}

// NotificationService persists decided notification intents and serves the
// student inbox. Dispatch is best-effort: a failed write is logged and
// dropped, never bubbled into the workflow transaction that produced it.
type NotificationService struct {
	repo   notificationRepository
	retain int
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService. retain bounds how
// many notifications are kept per recipient; zero disables pruning.
func NewNotificationService(repo notificationRepository, retain int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, retain: retain, logger: logger}
}

// Notify persists one intent as an inbox row.
func (s *NotificationService) Notify(ctx context.Context, intent *workflow.NotificationIntent) {
	if intent == nil {
		return
	}
	n := &models.Notification{
		RecipientID: intent.RecipientID,
		Title:       intent.Title,
		Message:     intent.Message,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist notification",
			zap.String("recipient_id", intent.RecipientID),
			zap.Error(err))
		return
	}
	if s.retain > 0 {
		if err := s.repo.PruneOld(ctx, intent.RecipientID, s.retain); err != nil {
			s.logger.Warn("failed to prune notifications", zap.Error(err))
		}
	}
}

// List returns the actor's notifications.
func (s *NotificationService) List(ctx context.Context, actor Actor, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error) {
	notifications, total, err := s.repo.List(ctx, models.NotificationFilter{
		RecipientID: actor.UserID,
		UnreadOnly:  unreadOnly,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, total, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	if err := s.repo.MarkRead(ctx, id, actor.UserID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// UnreadCount returns the actor's unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	count, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}
