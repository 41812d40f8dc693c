// Package relay ties a session store, a completion client and an outbound
// channel together: one inbound message in, one (possibly chunked) reply out.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chat-relay/internal/chunk"
	"chat-relay/internal/history"
	"chat-relay/internal/llm"
	"chat-relay/internal/messaging"
	"chat-relay/internal/observability"
	"chat-relay/internal/storage"
)

var ErrEmptyMessage = errors.New("inbound message is empty")

type Service struct {
	store    history.Store
	llm      llm.Client
	out      messaging.Sender
	recorder storage.Recorder
	channel  string
	maxChunk int
	log      *slog.Logger
	now      func() time.Time
}

type Options struct {
	// Channel labels recorded events, e.g. "twilio" or "telegram".
	Channel string
	// MaxChunkSize defaults to chunk.DefaultMaxSize.
	MaxChunkSize int
	// Recorder is optional.
	Recorder storage.Recorder
	Logger   *slog.Logger
}

func New(store history.Store, client llm.Client, out messaging.Sender, o Options) *Service {
	size := o.MaxChunkSize
	if size <= 0 {
		size = chunk.DefaultMaxSize
	}
	return &Service{
		store:    store,
		llm:      client,
		out:      out,
		recorder: o.Recorder,
		channel:  o.Channel,
		maxChunk: size,
		log:      observability.OrDefault(o.Logger),
		now:      time.Now,
	}
}

// HandleInbound records the user turn, asks for a completion, records the
// reply and sends it back in chunks. Store and completion failures abort
// before anything is sent. Once a reply exists, persisting it and sending it
// are attempted independently and their errors are joined.
func (s *Service) HandleInbound(ctx context.Context, key, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	log := s.log.With("session", key)

	thread, err := s.store.Append(ctx, key, history.Turn{Role: history.RoleUser, Text: text})
	if err != nil {
		return fmt.Errorf("append user turn: %w", err)
	}
	log.Debug("user turn stored", "turns", len(thread))

	resp, err := s.llm.Generate(ctx, thread)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}
	log.Info("completion received",
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"total_tokens", resp.TotalTokens,
		"fallback", resp.Fallback,
	)

	var persistErr error
	if _, err := s.store.Append(ctx, key, history.Turn{Role: history.RoleAssistant, Text: resp.Content}); err != nil {
		persistErr = fmt.Errorf("append assistant turn: %w", err)
		log.Error("failed to store assistant turn", "error", err)
	}

	sent, sendErr := s.sendChunks(ctx, log, key, resp.Content)

	s.record(log, storage.Event{
		Timestamp:         s.now().UTC(),
		SessionKey:        key,
		Channel:           s.channel,
		UserMessage:       text,
		AssistantResponse: resp.Content,
		Model:             resp.Model,
		TotalTokens:       resp.TotalTokens,
		Fallback:          resp.Fallback,
		ChunksSent:        sent.ok,
		ChunksFailed:      sent.failed,
	})

	return errors.Join(persistErr, sendErr)
}

type sendStats struct{ ok, failed int }

// sendChunks sends every chunk in order. A failed chunk does not stop later
// ones; the recipient may therefore see a partial reply.
func (s *Service) sendChunks(ctx context.Context, log *slog.Logger, to, reply string) (sendStats, error) {
	var st sendStats
	var errs []error
	i := 0
	for c := range chunk.Split(reply, s.maxChunk) {
		if err := s.out.Send(ctx, to, c); err != nil {
			st.failed++
			errs = append(errs, fmt.Errorf("chunk %d: %w", i, err))
			log.Error("failed to send chunk", "chunk", i, "error", err)
		} else {
			st.ok++
		}
		i++
	}
	if st.failed > 0 && st.ok > 0 {
		log.Warn("partial reply delivered", "sent", st.ok, "failed", st.failed)
	}
	return st, errors.Join(errs...)
}

func (s *Service) record(log *slog.Logger, ev storage.Event) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.AppendInteraction(ev); err != nil {
		log.Warn("failed to record interaction", "error", err)
	}
}
