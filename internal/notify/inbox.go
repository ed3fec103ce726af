package notify

import (
	"context"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"go.uber.org/zap"
)

// Inbox persists notifications so users can read them later.
type Inbox struct {
	store  repository.NotificationStore
	logger *zap.Logger
}

func NewInbox(store repository.NotificationStore, logger *zap.Logger) *Inbox {
	return &Inbox{store: store, logger: logger}
}

func (i *Inbox) Notify(ctx context.Context, n model.Notification) {
	if n.UserID == "" {
		return
	}
	if err := i.store.Create(ctx, &n); err != nil {
		i.logger.Warn("Failed to store notification",
			zap.String("user_id", n.UserID),
			zap.String("booking_id", n.BookingID),
			zap.Error(err),
		)
	}
}
