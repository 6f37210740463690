package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

func TestDiscordAdapterPayload(t *testing.T) {
	var got map[string]any
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(bytes.NewReader(nil)), Header: make(http.Header)}, nil
	})

	adapter := NewDiscordAdapter(client)
	err := adapter.Send(context.Background(), "https://discord.example/webhook", "", Message{
		Title:       "Match Completed",
		Content:     "alice 3 : 1 bob",
		Description: "alice wins",
		Color:       12345,
		Timestamp:   "2026-10-17T00:00:00Z",
		Footer:      "footer-text",
		Fields: []Field{
			{Name: "Score", Value: "3 : 1", Inline: true},
		},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if got["content"] != "alice 3 : 1 bob" {
		t.Fatalf("unexpected content: %v", got["content"])
	}
	embeds, ok := got["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("unexpected embeds: %v", got["embeds"])
	}
	embed, _ := embeds[0].(map[string]any)
	if embed["title"] != "Match Completed" || embed["timestamp"] != "2026-10-17T00:00:00Z" {
		t.Fatalf("unexpected embed: %v", embed)
	}
	footer, _ := embed["footer"].(map[string]any)
	if footer["text"] != "footer-text" {
		t.Fatalf("unexpected footer: %v", embed["footer"])
	}
	fields, _ := embed["fields"].([]any)
	if len(fields) != 1 {
		t.Fatalf("unexpected fields: %v", embed["fields"])
	}
}

func TestDiscordAdapterNon2xxIsError(t *testing.T) {
	client := newTestHTTPClient(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusTooManyRequests, Body: io.NopCloser(bytes.NewReader(nil)), Header: make(http.Header)}, nil
	})
	err := NewDiscordAdapter(client).Send(context.Background(), "https://discord.example/webhook", "", Message{Title: "x"})
	if err == nil {
		t.Fatal("expected error for 429")
	}
}
