package platforms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookAdapterSignsBody(t *testing.T) {
	var body []byte
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-Matchhub-Signature")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	adapter := NewWebhookAdapter(NewHTTPClient(time.Second))
	payload := map[string]any{"event": "match_completed", "session_id": "ses_1"}
	if err := adapter.Send(context.Background(), srv.URL, "s3cret", Message{Payload: payload}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if string(body) != `{"event":"match_completed","session_id":"ses_1"}` {
		t.Fatalf("unexpected body %s", body)
	}
	if sig == "" || sig != sign("s3cret", body) {
		t.Fatalf("signature mismatch: %q", sig)
	}
}

func TestWebhookAdapterWithoutSecretSkipsSignature(t *testing.T) {
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-Matchhub-Signature")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewWebhookAdapter(NewHTTPClient(time.Second)).Send(context.Background(), srv.URL, "", Message{Title: "x"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sig != "" {
		t.Fatalf("expected no signature, got %q", sig)
	}
}
