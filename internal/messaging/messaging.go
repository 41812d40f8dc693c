package messaging

import (
	"context"
	"errors"
)

var ErrSendFailed = errors.New("outbound send failed")

// Sender delivers one message body to a recipient address.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TemplateSender delivers a pre-approved template message, e.g. to reopen a
// conversation window.
type TemplateSender interface {
	SendTemplate(ctx context.Context, to string) error
}
