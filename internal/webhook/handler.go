// Package webhook exposes the inbound HTTP endpoint the messaging provider
// posts to.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chat-relay/internal/history"
	"chat-relay/internal/llm"
	"chat-relay/internal/observability"
)

// InboundHandler processes one inbound message for a session key.
type InboundHandler interface {
	HandleInbound(ctx context.Context, key, text string) error
}

type Server struct {
	relay InboundHandler
	log   *slog.Logger
}

func NewServer(relay InboundHandler, logger *slog.Logger) http.Handler {
	s := &Server{relay: relay, log: observability.OrDefault(logger)}
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/twilio", s.handleTwilio)
	mux.HandleFunc("/healthz", s.handleHealth)
	return withRecover(s.log, mux)
}

// handleTwilio reads the form-encoded From and Body fields and answers 200
// with an empty body once the reply has been handled.
func (s *Server) handleTwilio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	from := r.PostForm.Get("From")
	body := r.PostForm.Get("Body")
	if from == "" {
		http.Error(w, "From is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body) == "" {
		http.Error(w, "Body is required", http.StatusBadRequest)
		return
	}

	if err := s.relay.HandleInbound(r.Context(), from, body); err != nil {
		status := statusFor(err)
		s.log.Error("inbound message failed", "session", from, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, _ = io.WriteString(w, "ok")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrCompletionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func withRecover(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
