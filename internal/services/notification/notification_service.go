package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/thumuadocu/market-api/internal/apperr"
	"github.com/thumuadocu/market-api/internal/db"
	"github.com/thumuadocu/market-api/internal/models"
)

// DefaultLimit сколько уведомлений отдаётся без параметра limit
const DefaultLimit = 50

// Inbox хранилище уведомлений
type Inbox interface {
	ListNotifications(ctx context.Context, userID string, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// NotificationService читает уведомления пользователя
type NotificationService struct {
	inbox Inbox
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(inbox Inbox) *NotificationService {
	return &NotificationService{inbox: inbox}
}

// List возвращает последние уведомления пользователя
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	items, err := s.inbox.ListNotifications(ctx, userID.String(), int64(limit))
	if err != nil {
		return nil, apperr.Internal("failed to load notifications", err)
	}
	return items, nil
}

// UnreadCount число непрочитанных уведомлений
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.inbox.CountUnread(ctx, userID.String())
	if err != nil {
		return 0, apperr.Internal("failed to count notifications", err)
	}
	return n, nil
}

// MarkRead помечает уведомление прочитанным; чужие уведомления не находятся
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, id string) error {
	err := s.inbox.MarkRead(ctx, userID.String(), id)
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("notification not found")
	}
	if err != nil {
		return apperr.Internal("failed to update notification", err)
	}
	return nil
}
