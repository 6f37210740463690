package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// WebhookAdapter posts the raw match event. A non-empty secret signs the
// body with HMAC-SHA256 in X-Matchhub-Signature.
type WebhookAdapter struct {
	client *HTTPClient
}

func NewWebhookAdapter(client *HTTPClient) *WebhookAdapter {
	return &WebhookAdapter{client: client}
}

func (a *WebhookAdapter) Name() string {
	return "webhook"
}

func (a *WebhookAdapter) Send(ctx context.Context, endpoint, secret string, msg Message) error {
	body := msg.Payload
	if body == nil {
		body = map[string]any{"title": msg.Title, "description": msg.Description}
	}
	var headers map[string]string
	if secret != "" {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		headers = map[string]string{"X-Matchhub-Signature": sign(secret, raw)}
		body = json.RawMessage(raw)
	}
	return a.client.PostJSON(ctx, endpoint, headers, body)
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
