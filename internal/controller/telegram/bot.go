// Package telegram бот для привязки чата и просмотра ближайших встреч
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type accountFinder interface {
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Account, error)
}

type upcomingLister interface {
	Upcoming(ctx context.Context, actor model.Actor) ([]*model.Appointment, error)
}

type BotController struct {
	bot      *bot.Bot
	accounts accountFinder
	bookings upcomingLister
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, accounts accountFinder, bookings upcomingLister, logger *zap.Logger) *BotController {
	return &BotController{
		bot:      botInstance,
		accounts: accounts,
		bookings: bookings,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует обработчики команд и меню
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/appointments", bot.MatchTypeExact, c.handleAppointments)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Link this chat to your account"},
		{Command: "appointments", Description: "📅 My upcoming appointments"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

func (c *BotController) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	c.reply(ctx, b, update.Message.Chat.ID, StartText(update.Message.Chat.ID))
}

func (c *BotController) handleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	c.reply(ctx, b, chatID, c.AppointmentsText(ctx, chatID))
}

func (c *BotController) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		c.logger.Error("Failed to send bot reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// StartText подсказка, как привязать чат к аккаунту
func StartText(chatID int64) string {
	return fmt.Sprintf(
		"👋 Welcome to Campus Scheduler!\n\n"+
			"Your chat id is %d.\n"+
			"Enter it in your profile to receive appointment and message notifications.\n\n"+
			"/appointments - My upcoming appointments",
		chatID,
	)
}

// AppointmentsText ближайшие одобренные встречи владельца чата
func (c *BotController) AppointmentsText(ctx context.Context, chatID int64) string {
	account, err := c.accounts.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		c.logger.Error("Failed to find account by chat", zap.Int64("chat_id", chatID), zap.Error(err))
		return "❌ Something went wrong. Please try again later."
	}
	if account == nil {
		return "🔗 This chat is not linked to an account yet. Send /start to get your chat id."
	}

	actor := model.Actor{ID: account.ID, Role: account.Role, Name: account.Name}
	appointments, err := c.bookings.Upcoming(ctx, actor)
	if err != nil {
		c.logger.Error("Failed to load upcoming appointments", zap.String("account_id", account.ID), zap.Error(err))
		return "❌ Something went wrong. Please try again later."
	}
	if len(appointments) == 0 {
		return "📭 You have no upcoming appointments."
	}

	var sb strings.Builder
	sb.WriteString("📅 Upcoming appointments:\n")
	for _, a := range appointments {
		with := a.TeacherName
		if account.Role == model.RoleTeacher {
			with = a.StudentName
		}
		fmt.Fprintf(&sb, "\n• %s (%s) %s-%s with %s", a.Date, a.Day, a.StartTime, a.EndTime, with)
	}
	return sb.String()
}
