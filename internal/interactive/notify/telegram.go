package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rakunlabs/mockllm/internal/interactive"
)

// Telegram sends a chat message via a bot token when an interactive
// request is queued.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(botToken string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(_ context.Context, ev interactive.Event) error {
	text := fmt.Sprintf("interactive request queued: id=%s model=%s", ev.ID, ev.Model)
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("notify: telegram send failed", "error", err, "request_id", ev.ID)
		return err
	}
	return nil
}
