package error_notificator

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of tgbotapi.BotAPI used for alerts.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Infra struct {
	bot         Sender
	adminChatID int64
}

func NewTelegramInfra(token string, adminChatID int64) (*Infra, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return NewInfra(bot, adminChatID), nil
}

func NewInfra(bot Sender, adminChatID int64) *Infra {
	return &Infra{bot: bot, adminChatID: adminChatID}
}

func (i *Infra) Notify(_ context.Context, err error, details string) error {
	text := fmt.Sprintf(
		"❗ Interview relay error\n\nError: %v\n\nDetails: %s",
		err,
		details,
	)

	if _, sendErr := i.bot.Send(tgbotapi.NewMessage(i.adminChatID, text)); sendErr != nil {
		return fmt.Errorf("send alert: %w", sendErr)
	}
	return nil
}

type noop struct{}

// NewNoop is used when no alert channel is configured.
func NewNoop() Notificator { return noop{} }

func (noop) Notify(context.Context, error, string) error { return nil }
