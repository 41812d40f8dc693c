package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-relay/internal/config"
	"chat-relay/internal/messaging"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type updatesSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	if err := config.Require("TELEGRAM_BOT_TOKEN", token); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram api: %w", err)
	}
	return api, nil
}

// Sender delivers replies to a chat; the recipient address is the decimal
// chat ID.
type Sender struct{ s sender }

var _ messaging.Sender = (*Sender)(nil)

func NewSender(api *tgbotapi.BotAPI) *Sender { return &Sender{s: api} }

func (t *Sender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrSendFailed, err)
	}
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad chat id %q", messaging.ErrSendFailed, to)
	}
	if _, err := t.s.Send(tgbotapi.NewMessage(chatID, body)); err != nil {
		return fmt.Errorf("%w: telegram: %v", messaging.ErrSendFailed, err)
	}
	return nil
}
