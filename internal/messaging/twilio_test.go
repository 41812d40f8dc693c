package messaging

import (
	"context"
	"errors"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"chat-relay/internal/config"
)

type fakeCreator struct {
	calls []*twilioApi.CreateMessageParams
	err   error
}

func (f *fakeCreator) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.calls = append(f.calls, p)
	if f.err != nil {
		return nil, f.err
	}
	return &twilioApi.ApiV2010Message{}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func TestTwilioSender_Send(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSender{api: fc, from: "whatsapp:+14155238886"}

	if err := s.Send(context.Background(), "whatsapp:+1555", "Hello!"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fc.calls) != 1 {
		t.Fatalf("want 1 call, got %d", len(fc.calls))
	}
	p := fc.calls[0]
	if deref(p.From) != "whatsapp:+14155238886" || deref(p.To) != "whatsapp:+1555" || deref(p.Body) != "Hello!" {
		t.Fatalf("unexpected params: from=%q to=%q body=%q", deref(p.From), deref(p.To), deref(p.Body))
	}
}

func TestTwilioSender_SendError(t *testing.T) {
	s := &TwilioSender{api: &fakeCreator{err: errors.New("21610 unsubscribed")}, from: "x"}
	if err := s.Send(context.Background(), "y", "z"); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("want ErrSendFailed, got %v", err)
	}
}

func TestTwilioSender_CancelledContext(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSender{api: fc, from: "x"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, "y", "z"); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("want ErrSendFailed, got %v", err)
	}
	if len(fc.calls) != 0 {
		t.Fatalf("no request expected after cancel")
	}
}

func TestTwilioSender_SendTemplate(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSender{api: fc, from: "whatsapp:+1", templateSID: "HXabc"}
	if err := s.SendTemplate(context.Background(), "whatsapp:+2"); err != nil {
		t.Fatalf("template: %v", err)
	}
	p := fc.calls[0]
	if deref(p.ContentSid) != "HXabc" || deref(p.To) != "whatsapp:+2" || p.Body != nil {
		t.Fatalf("unexpected template params: sid=%q to=%q", deref(p.ContentSid), deref(p.To))
	}

	s.templateSID = ""
	if err := s.SendTemplate(context.Background(), "whatsapp:+2"); !errors.Is(err, config.ErrConfigurationMissing) {
		t.Fatalf("want ErrConfigurationMissing, got %v", err)
	}
}

func TestNewTwilio_MissingConfig(t *testing.T) {
	_, err := NewTwilio(TwilioOptions{AccountSID: "AC1"})
	if !errors.Is(err, config.ErrConfigurationMissing) {
		t.Fatalf("want ErrConfigurationMissing, got %v", err)
	}
}
