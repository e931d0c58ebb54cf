package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/Freeeeeet/campus_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier шлёт сообщение в привязанный чат; без привязки молча пропускает
type TelegramNotifier struct {
	sender messageSender
	logger *zap.Logger
}

func NewTelegramNotifier(sender messageSender, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, recipient *model.Account, text string) error {
	if recipient == nil || recipient.TelegramChatID == nil {
		return nil
	}

	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    *recipient.TelegramChatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message to %s: %w", recipient.ID, err)
	}

	n.logger.Debug("Telegram notification sent",
		zap.String("account_id", recipient.ID),
		zap.Int64("chat_id", *recipient.TelegramChatID))
	return nil
}

func escape(s string) string {
	return html.EscapeString(s)
}
