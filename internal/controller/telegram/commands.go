package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/timegrid"
)

// maxListed caps /mybookings output.
const maxListed = 10

type UserDirectory interface {
	GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error)
	LinkTelegram(ctx context.Context, userID string, chatID int64) (*model.User, error)
}

type BookingLister interface {
	List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
}

// Commands turns command text into reply text.
type Commands struct {
	users    UserDirectory
	bookings BookingLister
	logger   *zap.Logger
	now      func() time.Time
}

func NewCommands(users UserDirectory, bookings BookingLister, logger *zap.Logger) *Commands {
	return &Commands{
		users:    users,
		bookings: bookings,
		logger:   logger,
		now:      time.Now,
	}
}

// Start handles "/start <userId>", the deep link the web app hands out.
func (c *Commands) Start(ctx context.Context, chatID int64, text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		if user, err := c.users.GetByTelegramChat(ctx, chatID); err == nil && user != nil {
			return fmt.Sprintf("👋 Hi, %s! This chat already receives your booking updates.\n\n%s", user.Name, helpText)
		}
		return "👋 Open the link from your booking account to connect this chat.\n\n" + helpText
	}

	user, err := c.users.LinkTelegram(ctx, fields[1], chatID)
	if err != nil {
		if apperr.KindOf(err) != "" {
			return "❌ Could not link this chat: " + err.Error()
		}
		c.logger.Error("Failed to link telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return "❌ Something went wrong. Please try again later."
	}
	return fmt.Sprintf("✅ Done, %s. Booking updates will arrive in this chat.", user.Name)
}

const helpText = "Commands:\n" +
	"/start - link this chat to your account\n" +
	"/mybookings - your upcoming bookings\n" +
	"/help - this reference"

func (c *Commands) Help(ctx context.Context, chatID int64, text string) string {
	return "📚 " + helpText
}

// MyBookings lists active bookings from today on for the linked user.
func (c *Commands) MyBookings(ctx context.Context, chatID int64, text string) string {
	user, err := c.users.GetByTelegramChat(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to resolve telegram chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return "❌ Something went wrong. Please try again later."
	}
	if user == nil {
		return "This chat is not linked yet. Use the link from your booking account."
	}

	filter := model.BookingFilter{}
	from := timegrid.NormalizeDate(c.now())
	filter.From = &from
	switch user.Role {
	case model.RoleStaff:
		filter.StaffID = user.ID
	default:
		filter.ClientID = user.ID
	}

	list, err := c.bookings.List(ctx, filter)
	if err != nil {
		c.logger.Error("Failed to list bookings", zap.String("user_id", user.ID), zap.Error(err))
		return "❌ Something went wrong. Please try again later."
	}

	var lines []string
	for _, b := range list {
		if !b.IsActive() {
			continue
		}
		lines = append(lines, FormatBooking(b))
		if len(lines) == maxListed {
			break
		}
	}
	if len(lines) == 0 {
		return "📭 You have no upcoming bookings."
	}
	return "📅 Your bookings:\n\n" + strings.Join(lines, "\n")
}

type statusDisplay struct {
	Emoji string
	Text  string
}

func bookingStatusDisplay(status model.BookingStatus) statusDisplay {
	displays := map[model.BookingStatus]statusDisplay{
		model.BookingStatusPending:  {"⏳", "Waiting for approval"},
		model.BookingStatusApproved: {"✅", "Approved"},
		model.BookingStatusRejected: {"🚫", "Rejected"},
	}
	if display, ok := displays[status]; ok {
		return display
	}
	return statusDisplay{"❓", "Unknown"}
}

// FormatBooking renders one line, "⏳ 6/1/2026 1:30 PM (90 min) with Sam, Waiting for approval".
func FormatBooking(b *model.Booking) string {
	display := bookingStatusDisplay(b.Status)
	line := fmt.Sprintf("%s %s %s (%d min)", display.Emoji, timegrid.FormatShort(b.Date), timegrid.FormatClock12(b.SlotStart), b.Duration)
	if b.Staff != nil {
		line += " with " + b.Staff.Name
	}
	return line + ", " + display.Text
}
