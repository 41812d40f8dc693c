package messaging

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"chat-relay/internal/config"
)

// messageCreator is the subset of the Twilio REST API the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioOptions struct {
	AccountSID  string
	AuthToken   string
	From        string
	TemplateSID string
}

type TwilioSender struct {
	api         messageCreator
	from        string
	templateSID string
}

var (
	_ Sender         = (*TwilioSender)(nil)
	_ TemplateSender = (*TwilioSender)(nil)
)

func NewTwilio(o TwilioOptions) (*TwilioSender, error) {
	if err := config.Require(
		"TWILIO_ACCOUNT_SID", o.AccountSID,
		"TWILIO_AUTH_TOKEN", o.AuthToken,
		"TWILIO_FROM", o.From,
	); err != nil {
		return nil, err
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: o.AccountSID,
		Password: o.AuthToken,
	})
	return &TwilioSender{api: client.Api, from: o.From, templateSID: o.TemplateSID}, nil
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetBody(body)
	return s.create(ctx, params)
}

func (s *TwilioSender) SendTemplate(ctx context.Context, to string) error {
	if err := config.Require("TWILIO_TEMPLATE_SID", s.templateSID); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetContentSid(s.templateSID)
	return s.create(ctx, params)
}

// create is synchronous; the SDK takes no context, so only a context that is
// already done short-circuits the call.
func (s *TwilioSender) create(ctx context.Context, params *twilioApi.CreateMessageParams) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: twilio: %v", ErrSendFailed, err)
	}
	return nil
}
