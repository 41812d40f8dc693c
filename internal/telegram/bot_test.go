package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-relay/internal/llm"
	"chat-relay/internal/messaging"
)

type fakeTG struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	stopped bool
	err     error
}

func (f *fakeTG) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeTG) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeTG) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

type recordingRelay struct {
	mu   sync.Mutex
	seen map[string][]string
	err  error
}

func (r *recordingRelay) HandleInbound(_ context.Context, key, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string][]string{}
	}
	r.seen[key] = append(r.seen[key], text)
	return r.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

func commandUpdate(chatID int64, cmd string) tgbotapi.Update {
	u := textUpdate(chatID, "/"+cmd)
	u.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return u
}

func runBot(t *testing.T, relay InboundHandler, tg *fakeTG, updates ...tgbotapi.Update) {
	t.Helper()
	tg.updates = make(chan tgbotapi.Update, len(updates))
	for _, u := range updates {
		tg.updates <- u
	}
	close(tg.updates)
	b := &Bot{api: tg, out: &Sender{s: tg}, relay: relay, log: quiet}
	done := make(chan struct{})
	go func() {
		b.Start(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("bot did not stop after updates closed")
	}
}

func TestBot_RelaysTextInOrderPerChat(t *testing.T) {
	relay := &recordingRelay{}
	tg := &fakeTG{}
	runBot(t, relay, tg,
		textUpdate(1, "a1"), textUpdate(2, "b1"), textUpdate(1, "a2"),
		textUpdate(9, "c1"), textUpdate(1, "a3"), tgbotapi.Update{},
	)
	if got := relay.seen["1"]; len(got) != 3 || got[0] != "a1" || got[1] != "a2" || got[2] != "a3" {
		t.Fatalf("chat 1 order: %v", got)
	}
	if len(relay.seen["2"]) != 1 || len(relay.seen["9"]) != 1 {
		t.Fatalf("other chats: %v", relay.seen)
	}
}

func TestBot_StartCommandGreets(t *testing.T) {
	relay := &recordingRelay{}
	tg := &fakeTG{}
	runBot(t, relay, tg, commandUpdate(5, "start"), commandUpdate(5, "other"))
	if len(relay.seen) != 0 {
		t.Fatalf("commands must not reach the relay: %v", relay.seen)
	}
	if len(tg.sent) != 1 || tg.sent[0].Text != greeting || tg.sent[0].ChatID != 5 {
		t.Fatalf("unexpected sends: %+v", tg.sent)
	}
}

func TestBot_NotifiesOnCompletionFailure(t *testing.T) {
	tg := &fakeTG{}
	runBot(t, &recordingRelay{err: llm.ErrCompletionFailed}, tg, textUpdate(3, "hi"))
	if len(tg.sent) != 1 || tg.sent[0].Text != failMsg {
		t.Fatalf("expected failure notice, got %+v", tg.sent)
	}

	tg = &fakeTG{}
	runBot(t, &recordingRelay{err: messaging.ErrSendFailed}, tg, textUpdate(3, "hi"))
	if len(tg.sent) != 0 {
		t.Fatalf("no notice expected after send failure, got %+v", tg.sent)
	}
}

func TestBot_StopsOnContextCancel(t *testing.T) {
	tg := &fakeTG{updates: make(chan tgbotapi.Update)}
	b := &Bot{api: tg, out: &Sender{s: tg}, relay: &recordingRelay{}, log: quiet}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("bot did not stop on cancel")
	}
	if !tg.stopped {
		t.Fatalf("updates not stopped")
	}
}

func TestSender_Send(t *testing.T) {
	tg := &fakeTG{}
	s := &Sender{s: tg}
	if err := s.Send(context.Background(), "-100123", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if tg.sent[0].ChatID != -100123 || tg.sent[0].Text != "hello" {
		t.Fatalf("unexpected message: %+v", tg.sent[0])
	}
	if err := s.Send(context.Background(), "whatsapp:+1", "x"); !errors.Is(err, messaging.ErrSendFailed) {
		t.Fatalf("bad chat id: %v", err)
	}
	tg.err = errors.New("429 too many requests")
	if err := s.Send(context.Background(), "1", "x"); !errors.Is(err, messaging.ErrSendFailed) {
		t.Fatalf("api error: %v", err)
	}
}

func TestNewAPI_MissingToken(t *testing.T) {
	if _, err := NewAPI(""); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestWorkerFor_InRange(t *testing.T) {
	for _, id := range []int64{0, 1, -1, 7, 8, -100123456789, math.MaxInt64, math.MinInt64} {
		w := workerFor(id)
		if w < 0 || w >= workers {
			t.Fatalf("chat %d: worker %d out of range", id, w)
		}
		if workerFor(id) != w {
			t.Fatalf("chat %d: worker not stable", id)
		}
	}
}
