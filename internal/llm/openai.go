package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"chat-relay/internal/config"
	"chat-relay/internal/history"
)

type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// OpenRouter attribution headers, both optional.
	Referrer string
	Title    string
}

// NewOpenAI builds a client for any OpenAI-compatible chat completions
// endpoint. The underlying HTTP client is created once and reused.
func NewOpenAI(o OpenAIOptions) (*OpenAIClient, error) {
	if err := config.Require("OPENAI_API_KEY", o.APIKey, "OPENAI_MODEL", o.Model); err != nil {
		return nil, err
	}
	cfg := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	h := http.Header{}
	if o.Referrer != "" {
		h.Set("HTTP-Referer", o.Referrer)
	}
	if o.Title != "" {
		h.Set("X-Title", o.Title)
	}
	rt := http.DefaultTransport
	if len(h) > 0 {
		rt = headerTransport{rt: rt, headers: h}
	}
	cfg.HTTPClient = &http.Client{Transport: rt}

	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &OpenAIClient{
		client:    openai.NewClientWithConfig(cfg),
		model:     o.Model,
		maxTokens: maxTokens,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, thread history.Thread) (Response, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(thread))
	for _, t := range thread {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(t.Role), Content: t.Text})
	}

	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         msgs,
		Temperature:      Temperature,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
		MaxTokens:        c.maxTokens,
		ResponseFormat:   &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeText},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	out := Response{
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if out.Model == "" {
		out.Model = c.model
	}
	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}
	out.Content, out.Fallback = contentOrFallback(text)
	return out, nil
}
