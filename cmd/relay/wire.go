package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chat-relay/internal/analytics"
	"chat-relay/internal/config"
	"chat-relay/internal/history"
	"chat-relay/internal/llm"
	"chat-relay/internal/messaging"
	"chat-relay/internal/prompt"
	"chat-relay/internal/relay"
	"chat-relay/internal/scheduler"
	"chat-relay/internal/storage"
)

// core holds everything both channels share.
type core struct {
	store    history.Store
	memory   *history.MemoryStore
	recorder storage.Recorder
	llm      llm.Client
	sched    *scheduler.Scheduler
	closers  []func() error
}

func buildCore(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *core, err error) {
	c := &core{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	preamble, err := prompt.Load(cfg.SystemPromptPath)
	if err != nil {
		return nil, err
	}
	if preamble == "" {
		log.Info("no system prompt file, using built-in preamble", "path", cfg.SystemPromptPath)
	}
	opts := history.Options{Preamble: preamble, TTL: cfg.SessionTTL}

	switch cfg.SessionBackend {
	case config.BackendRedis:
		if err := config.Require("REDIS_URL", cfg.RedisURL); err != nil {
			return nil, err
		}
		rdb, err := history.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable at startup", "error", err)
		}
		c.store = history.NewRedisStore(rdb, opts)
		c.closers = append(c.closers, rdb.Close)
	case config.BackendMemory:
		c.memory = history.NewMemoryStore(opts)
		c.store = c.memory
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.SessionBackend)
	}

	if cfg.LogFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.LogFilePath)
		if err != nil {
			log.Warn("failed to init interaction log", "error", err)
		} else {
			c.recorder = fr
		}
	}

	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	c.llm = client
	if cl, ok := client.(io.Closer); ok {
		c.closers = append(c.closers, cl.Close)
	}

	c.sched = scheduler.New(log)
	if c.memory != nil {
		mem := c.memory
		if err := c.sched.Every("session-sweep", cfg.SweepInterval, func(context.Context) error {
			if n := mem.Sweep(time.Now()); n > 0 {
				log.Debug("expired sessions swept", "count", n)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}
	if c.recorder != nil {
		rec := c.recorder
		reportDir := filepath.Dir(cfg.LogFilePath)
		if err := c.sched.Cron("daily-report", "5 0 * * *", func(context.Context) error {
			return dailyReport(rec, log, time.Now().UTC().AddDate(0, 0, -1), reportDir)
		}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *core) newRelay(out messaging.Sender, channel string, cfg *config.Config, log *slog.Logger) *relay.Service {
	return relay.New(c.store, c.llm, out, relay.Options{
		Channel:      channel,
		MaxChunkSize: cfg.MaxChunkSize,
		Recorder:     c.recorder,
		Logger:       log,
	})
}

func (c *core) Close() {
	if c.sched != nil {
		c.sched.Stop()
	}
	for _, fn := range c.closers {
		_ = fn()
	}
}

// dailyReport logs the summary for day and writes the full stats as
// report-YYYY-MM-DD.json into dir.
func dailyReport(rec storage.Recorder, log *slog.Logger, day time.Time, dir string) error {
	events, err := rec.LoadInteractions()
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	stats := analytics.AnalyzeDailyLogs(events, day)
	log.Info(stats.Summary(),
		"date", stats.Date,
		"messages", stats.TotalMessages,
		"sessions", stats.UniqueSessions,
		"fallbacks", stats.FallbackCount,
	)

	js, err := stats.ToJSON()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	path := filepath.Join(dir, "report-"+stats.Date+".json")
	if err := os.WriteFile(path, []byte(js), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
