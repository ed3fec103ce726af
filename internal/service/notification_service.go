package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"go.uber.org/zap"
)

// InboxLimit caps how many entries List returns.
const InboxLimit = 50

type NotificationService struct {
	store  repository.NotificationStore
	logger *zap.Logger
}

func NewNotificationService(store repository.NotificationStore, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// List returns the latest entries of userID, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]*model.Notification, error) {
	if userID == "" {
		return nil, apperr.Validation("user id is required")
	}
	list, err := s.store.ListByUser(ctx, userID, unreadOnly, InboxLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if list == nil {
		list = []*model.Notification{}
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	n, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	if n == nil {
		return nil, apperr.NotFound("notification not found")
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperr.Validation("user id is required")
	}
	changed, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	s.logger.Debug("Notifications marked read",
		zap.String("user_id", userID),
		zap.Int64("count", changed),
	)
	return changed, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, apperr.Validation("user id is required")
	}
	count, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
