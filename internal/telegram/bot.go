package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-relay/internal/messaging"
	"chat-relay/internal/observability"
)

const (
	startCmd = "start"
	greeting = "Hi! Send me a message and I will answer."
	failMsg  = "Sorry, something went wrong."
	workers  = 8
)

// InboundHandler processes one inbound message for a session key.
type InboundHandler interface {
	HandleInbound(ctx context.Context, key, text string) error
}

// Bot long-polls for updates and feeds text messages to the relay. Messages
// of one chat always land on the same worker, so they are handled in arrival
// order while different chats proceed in parallel.
type Bot struct {
	api   updatesSource
	out   messaging.Sender
	relay InboundHandler
	log   *slog.Logger
}

func NewBot(api *tgbotapi.BotAPI, out messaging.Sender, relay InboundHandler, logger *slog.Logger) *Bot {
	return &Bot{api: api, out: out, relay: relay, log: observability.OrDefault(logger)}
}

// Start blocks until ctx is cancelled or the updates channel closes.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	queues := make([]chan *tgbotapi.Message, workers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan *tgbotapi.Message, 16)
		wg.Add(1)
		go func(q <-chan *tgbotapi.Message) {
			defer wg.Done()
			for msg := range q {
				b.handleIncomingMessage(ctx, msg)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat == nil {
				continue
			}
			queues[workerFor(update.Message.Chat.ID)] <- update.Message
		}
	}
}

func workerFor(chatID int64) int {
	return int(uint64(chatID) % workers)
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	key := strconv.FormatInt(msg.Chat.ID, 10)
	if msg.IsCommand() {
		if msg.Command() == startCmd {
			b.sendMessage(ctx, key, greeting)
		}
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	b.log.Debug("incoming telegram message", "session", key)
	if err := b.relay.HandleInbound(ctx, key, msg.Text); err != nil {
		b.log.Error("failed to handle message", "session", key, "error", err)
		if !errors.Is(err, messaging.ErrSendFailed) {
			b.sendMessage(ctx, key, failMsg)
		}
	}
}

func (b *Bot) sendMessage(ctx context.Context, key, text string) {
	if err := b.out.Send(ctx, key, text); err != nil {
		b.log.Error("failed to send message", "session", key, "error", err)
	}
}
