package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chat-relay/internal/config"
	"chat-relay/internal/observability"
)

var (
	envFile string

	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relay",
		Short: "Relay chat messages to an AI completion endpoint",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %s not loaded: %v\n", envFile, err)
			}
			c, err := config.Load()
			if err != nil {
				return err
			}
			cfg = c
			logger = observability.New(cfg.LogLevel, cfg.LogFormat)
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTelegramCmd())
	root.AddCommand(newSendTemplateCmd())
	return root
}
