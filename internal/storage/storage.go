package storage

import "time"

// Event is one completed exchange: the user's message and the reply sent back.
// Events are expected to be appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	SessionKey        string    `json:"session_key"`
	Channel           string    `json:"channel,omitempty"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Model             string    `json:"model,omitempty"`
	TotalTokens       int       `json:"total_tokens,omitempty"`
	Fallback          bool      `json:"fallback,omitempty"`
	ChunksSent        int       `json:"chunks_sent"`
	ChunksFailed      int       `json:"chunks_failed,omitempty"`
}

// Recorder abstracts persistence of interaction events.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
