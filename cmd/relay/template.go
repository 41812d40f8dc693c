package main

import (
	"github.com/spf13/cobra"

	"chat-relay/internal/messaging"
)

func newSendTemplateCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "send-template",
		Short: "Send the configured template message, e.g. to reopen a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := messaging.NewTwilio(messaging.TwilioOptions{
				AccountSID:  cfg.TwilioAccountSID,
				AuthToken:   cfg.TwilioAuthToken,
				From:        cfg.TwilioFrom,
				TemplateSID: cfg.TwilioTemplateSID,
			})
			if err != nil {
				return err
			}
			if err := out.SendTemplate(cmd.Context(), to); err != nil {
				return err
			}
			logger.Info("template sent", "to", to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address, e.g. whatsapp:+15551234567")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
