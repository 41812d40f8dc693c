package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chat-relay/internal/telegram"
)

func newTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram",
		Short: "Run the Telegram long-polling bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api, err := telegram.NewAPI(cfg.TelegramBotToken)
			if err != nil {
				return err
			}
			c, err := buildCore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			out := telegram.NewSender(api)
			bot := telegram.NewBot(api, out, c.newRelay(out, "telegram", cfg, logger), logger)

			c.sched.Start()
			logger.Info("telegram bot started", "username", api.Self.UserName)
			bot.Start(ctx)
			return nil
		},
	}
}
