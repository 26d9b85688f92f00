package service

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ladder_bot/internal/modules/config"
	"ladder_bot/pkg/logger"
)

// Telegram шлёт уведомления оператору. Без токена работает как
// заглушка: уведомления молча пропускаются, бот живёт без телеграма.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	if cfg.Telegram.Token == "" {
		logger.Info("telegram: token is empty, notifications disabled")
		return &Telegram{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("NewTelegram: %w", err)
	}
	logger.Info("telegram: authorized as @%s", bot.Self.UserName)

	return &Telegram{
		bot:    bot,
		chatID: cfg.Telegram.ChatID,
	}, nil
}

func (t *Telegram) Sendf(format string, args ...interface{}) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf(format, args...))
	if _, err := t.bot.Send(msg); err != nil {
		logger.Error("telegram send: %v", err)
	}
}
