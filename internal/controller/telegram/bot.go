// Package telegram is the chat front end: users link a chat to their
// account and read their bookings there. Lifecycle messages reach the chat
// through notify.Telegram.
package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/service"
)

type BotController struct {
	bot      *bot.Bot
	commands *Commands
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	users *service.UserService,
	bookings *service.BookingService,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		commands: NewCommands(users, bookings, logger),
		logger:   logger,
	}
}

// RegisterHandlers wires the commands and publishes the command menu.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, c.reply(c.commands.Start))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.reply(c.commands.Help))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, c.reply(c.commands.MyBookings))

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Link this chat to your booking account"},
		{Command: "mybookings", Description: "Show your upcoming bookings"},
		{Command: "help", Description: "Command reference"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start blocks polling updates until ctx is done.
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting telegram bot")
	c.bot.Start(ctx)
}

// reply adapts a text command to a bot handler.
func (c *BotController) reply(cmd func(ctx context.Context, chatID int64, text string) string) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		answer := cmd(ctx, update.Message.Chat.ID, update.Message.Text)
		if answer == "" {
			return
		}
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   answer,
		})
		if err != nil {
			c.logger.Warn("Failed to answer command",
				zap.Int64("chat_id", update.Message.Chat.ID),
				zap.Error(err),
			)
		}
	}
}
