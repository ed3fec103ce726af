package notify

import (
	"context"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Sender is the part of *bot.Bot used for delivery.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Telegram pushes the notification text to users that linked a chat.
type Telegram struct {
	sender Sender
	users  UserLookup
	logger *zap.Logger
}

func NewTelegram(sender Sender, users UserLookup, logger *zap.Logger) *Telegram {
	return &Telegram{sender: sender, users: users, logger: logger}
}

func (t *Telegram) Notify(ctx context.Context, n model.Notification) {
	if n.UserID == "" {
		return
	}
	user, err := t.users.GetByID(ctx, n.UserID)
	if err != nil {
		t.logger.Warn("Failed to look up telegram chat", zap.String("user_id", n.UserID), zap.Error(err))
		return
	}
	if user == nil || user.TelegramChatID == nil {
		return
	}

	_, err = t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   kindPrefix(n.Kind) + n.Message,
	})
	if err != nil {
		t.logger.Warn("Failed to send telegram message",
			zap.String("user_id", n.UserID),
			zap.Int64("chat_id", *user.TelegramChatID),
			zap.Error(err),
		)
	}
}

func kindPrefix(kind model.NotificationKind) string {
	switch kind {
	case model.NotificationSuccess:
		return "✅ "
	case model.NotificationError:
		return "❌ "
	default:
		return "🔔 "
	}
}
