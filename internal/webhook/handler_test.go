package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"chat-relay/internal/history"
	"chat-relay/internal/llm"
	"chat-relay/internal/messaging"
)

type fakeRelay struct {
	key, text string
	err       error
	panics    bool
}

func (f *fakeRelay) HandleInbound(_ context.Context, key, text string) error {
	if f.panics {
		panic("boom")
	}
	f.key, f.text = key, text
	return f.err
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func postForm(h http.Handler, v url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTwilioWebhook_Success(t *testing.T) {
	fr := &fakeRelay{}
	h := NewServer(fr, quiet)

	rr := postForm(h, url.Values{"From": {"whatsapp:+1555"}, "Body": {"Hi"}, "MessageSid": {"SM1"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	if fr.key != "whatsapp:+1555" || fr.text != "Hi" {
		t.Fatalf("relay got key=%q text=%q", fr.key, fr.text)
	}
}

func TestTwilioWebhook_Validation(t *testing.T) {
	h := NewServer(&fakeRelay{}, quiet)
	tests := []struct {
		name string
		v    url.Values
	}{
		{"missing from", url.Values{"Body": {"Hi"}}},
		{"blank body", url.Values{"From": {"+1"}, "Body": {"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := postForm(h, tt.v); rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d", rr.Code)
			}
		})
	}
}

func TestTwilioWebhook_MethodNotAllowed(t *testing.T) {
	h := NewServer(&fakeRelay{}, quiet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/webhook/twilio", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestTwilioWebhook_ErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("append: %w", history.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("generate: %w", llm.ErrCompletionFailed), http.StatusBadGateway},
		{errors.Join(nil, messaging.ErrSendFailed), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := NewServer(&fakeRelay{err: tt.err}, quiet)
		rr := postForm(h, url.Values{"From": {"+1"}, "Body": {"Hi"}})
		if rr.Code != tt.want {
			t.Fatalf("%v: status=%d want %d", tt.err, rr.Code, tt.want)
		}
	}
}

func TestTwilioWebhook_RecoversPanic(t *testing.T) {
	h := NewServer(&fakeRelay{panics: true}, quiet)
	if rr := postForm(h, url.Values{"From": {"+1"}, "Body": {"Hi"}}); rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := NewServer(&fakeRelay{}, quiet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}
