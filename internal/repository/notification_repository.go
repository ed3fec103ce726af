package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository/base"
)

const notificationColumns = `id::text, user_id::text, message, kind, COALESCE(booking_id::text, ''), is_read, created_at`

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(db base.DB) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(db)}
}

// Create stores an inbox entry
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, kind, booking_id)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid)
		RETURNING id::text, created_at
	`

	err := r.DB().QueryRow(ctx, query, n.UserID, n.Message, n.Kind, n.BookingID).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

// ListByUser returns the newest entries of a user first
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND ($2::boolean = false OR is_read = false)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.DB().Query(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}

	return list, rows.Err()
}

// MarkRead returns nil when the entry does not exist or belongs to someone else
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	if !base.ValidID(id) || !base.ValidID(userID) {
		return nil, nil
	}

	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns

	n, err := scanNotification(r.DB().QueryRow(ctx, query, id, userID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	return n, nil
}

// MarkAllRead returns how many entries changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB().QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Kind, &n.BookingID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
