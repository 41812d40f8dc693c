package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Morwran/yagpt"

	"chat-relay/internal/config"
	"chat-relay/internal/history"
)

// The yagpt library fixes its own generation options and model. Requests sent
// through YandexClient use these instead of Temperature and DefaultMaxTokens.
const (
	YandexTemperature = 0.6
	YandexMaxTokens   = 2000
)

const (
	// iamRefreshMargin renews the IAM token this long before it expires.
	iamRefreshMargin = 5 * time.Minute
	// iamFallbackLifetime is assumed when the IAM response has no expiry.
	iamFallbackLifetime = time.Hour
)

type YandexClient struct {
	ya  yagpt.YaGPTFace
	iam yagpt.IamFace
	now func() time.Time

	mu        sync.Mutex
	iamToken  string
	expiresAt time.Time
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	if err := config.Require("YANDEX_OAUTH_TOKEN", oauthToken, "YANDEX_FOLDER_ID", folderID); err != nil {
		return nil, err
	}
	ctx := context.Background()
	iam, err := yagpt.NewYaIamWithCtx(ctx, oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	ya, err := yagpt.NewYagptWithCtx(ctx, folderID)
	if err != nil {
		_ = iam.Close()
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	c := newYandexClient(ya, iam, time.Now)
	// Fail at startup rather than on the first message.
	if _, err := c.token(ctx); err != nil {
		_ = iam.Close()
		return nil, err
	}
	return c, nil
}

func newYandexClient(ya yagpt.YaGPTFace, iam yagpt.IamFace, now func() time.Time) *YandexClient {
	return &YandexClient{ya: ya, iam: iam, now: now}
}

// token returns a cached IAM token, minting a new one when it is missing or
// close to expiry.
func (c *YandexClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.iamToken != "" && now.Add(iamRefreshMargin).Before(c.expiresAt) {
		return c.iamToken, nil
	}
	resp, err := c.iam.CreateWithCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create iam token: %w", err)
	}
	if resp == nil || resp.IamToken == "" {
		return "", fmt.Errorf("failed to create iam token: empty response")
	}
	c.iamToken = resp.IamToken
	c.expiresAt = resp.ExpiresAt
	if c.expiresAt.IsZero() {
		c.expiresAt = now.Add(iamFallbackLifetime)
	}
	return c.iamToken, nil
}

// invalidate drops tok so the next call mints a fresh one. A token already
// replaced by another caller is left alone.
func (c *YandexClient) invalidate(tok string) {
	c.mu.Lock()
	if c.iamToken == tok {
		c.iamToken = ""
	}
	c.mu.Unlock()
}

func (c *YandexClient) Close() error {
	return c.iam.Close()
}

func (c *YandexClient) Generate(ctx context.Context, thread history.Thread) (Response, error) {
	messages := make([]yagpt.Message, 0, len(thread))
	for _, t := range thread {
		messages = append(messages, yagpt.Message{Role: string(t.Role), Content: t.Text})
	}

	tok, err := c.token(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("%w: yagpt: %v", ErrCompletionFailed, err)
	}
	resp, err := c.ya.CompletionWithCtx(ctx, tok, messages)
	if err != nil {
		// The token may have been revoked early; renew it on the next call.
		c.invalidate(tok)
		return Response{}, fmt.Errorf("%w: yagpt: %v", ErrCompletionFailed, err)
	}
	out := Response{Model: yagpt.YaModelLite}
	var text string
	if resp != nil {
		if len(resp.Alternatives) > 0 {
			text = resp.Alternatives[0].Message.Content
		}
		out.PromptTokens = int(resp.Usage.InputTextTokens)
		out.CompletionTokens = int(resp.Usage.CompletionTokens)
		out.TotalTokens = int(resp.Usage.TotalTokens)
	}
	out.Content, out.Fallback = contentOrFallback(text)
	return out, nil
}
