package history

import (
	"context"
	"errors"
	"time"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Thread is the ordered list of turns for one session key.
type Thread []Turn

func (t Thread) clone() Thread {
	out := make(Thread, len(t))
	copy(out, t)
	return out
}

const (
	DefaultTTL      = time.Hour
	DefaultPreamble = "You are a helpful assistant. Answer concisely in the language of the user."
)

var (
	ErrStoreUnavailable = errors.New("session store unavailable")
	ErrEmptyTurn        = errors.New("turn text is empty")
	ErrCorruptThread    = errors.New("stored thread is not decodable")
)

// Store keeps one thread per session key. Append must be atomic per key: two
// concurrent appends for the same key both land in the thread.
type Store interface {
	// Load returns the current thread, or false when the key was never
	// written or has expired. It does not extend the TTL.
	Load(ctx context.Context, key string) (Thread, bool, error)
	// Append adds turn to the thread, creating it with the system preamble
	// first when absent, and resets the TTL. It returns the resulting thread.
	Append(ctx context.Context, key string, turn Turn) (Thread, error)
}

type Options struct {
	Preamble string
	TTL      time.Duration
}

func (o Options) withDefaults() Options {
	if o.Preamble == "" {
		o.Preamble = DefaultPreamble
	}
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	return o
}

func (o Options) newThread(first Turn) Thread {
	return Thread{{Role: RoleSystem, Text: o.Preamble}, first}
}
