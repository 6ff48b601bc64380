package capture

import (
	"context"
	"github.com/slack-go/slack"
	"sync"
)

// Webhook is a message posted to a response url
type Webhook struct {
	URL string
	*slack.WebhookMessage
}

// WebhookCaptor captures messages posted to response urls
type WebhookCaptor struct {
	mu       sync.Mutex
	webhooks []Webhook
	posted   chan Webhook
}

// NewWebhookCaptor returns a new WebhookCaptor buffering up to size messages on Posted
func NewWebhookCaptor(size int) (w *WebhookCaptor) {
	w = new(WebhookCaptor)
	w.posted = make(chan Webhook, size)

	return w
}

// Post captures a message posted to url. Its signature matches slack.PostWebhookContext
func (w *WebhookCaptor) Post(ctx context.Context, url string, msg *slack.WebhookMessage) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wh := Webhook{URL: url, WebhookMessage: msg}
	w.webhooks = append(w.webhooks, wh)

	select {
	case w.posted <- wh:
	default:
	}

	return nil
}

// Posted returns the channel receiving posted messages as they come
func (w *WebhookCaptor) Posted() <-chan Webhook {
	return w.posted
}

// Webhooks returns a copy of all captured messages
func (w *WebhookCaptor) Webhooks() []Webhook {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]Webhook(nil), w.webhooks...)
}
