package resultpush

import (
	"strings"
	"testing"
	"time"

	"matchhub/internal/coordinator"
	"matchhub/internal/rating"
)

func TestFormatMatchCompletedRanked(t *testing.T) {
	msg, ok := FormatMessage(MatchEvent{
		EventType: EventMatchCompleted,
		SessionID: "ses_01HZZZZZZZZZZZ",
		Host:      coordinator.PlayerRef{PlayerID: "p1", DisplayName: "alice"},
		Guest:     coordinator.PlayerRef{PlayerID: "p2", DisplayName: "bob"},
		Score:     coordinator.Score{Host: 3, Guest: 1},
		Result: &rating.MatchResult{
			Ranked: true,
			Period: "2026-W42",
			Host:   rating.RatingChange{AccountID: "a", Before: 1200, After: 1216},
			Guest:  rating.RatingChange{AccountID: "b", Before: 1200, After: 1184},
		},
		At: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC),
	})
	if !ok {
		t.Fatal("expected formatted message")
	}
	if msg.Content != "alice 3 : 1 bob" || msg.Description != "alice beat bob." {
		t.Fatalf("unexpected text %q / %q", msg.Content, msg.Description)
	}
	if msg.Color != colorCompleted || msg.Timestamp != "2026-10-17T12:00:00Z" {
		t.Fatalf("unexpected color/timestamp %x %s", msg.Color, msg.Timestamp)
	}
	var hostRating, session string
	for _, f := range msg.Fields {
		switch f.Name {
		case "alice":
			hostRating = f.Value
		case "Session":
			session = f.Value
		}
	}
	if !strings.Contains(hostRating, "(+16)") {
		t.Fatalf("unexpected host rating field %q", hostRating)
	}
	if session != "ses_01HZZZZZ" {
		t.Fatalf("session id not shortened: %q", session)
	}
}

func TestFormatMatchCompletedUnrankedDraw(t *testing.T) {
	msg, ok := FormatMessage(MatchEvent{
		EventType: EventMatchCompleted,
		SessionID: "ses_1",
		Host:      coordinator.PlayerRef{PlayerID: "p1"},
		Guest:     coordinator.PlayerRef{PlayerID: "p2"},
		Score:     coordinator.Score{Host: 2, Guest: 2},
	})
	if !ok {
		t.Fatal("expected formatted message")
	}
	if msg.Description != "p1 and p2 drew." {
		t.Fatalf("unexpected description %q", msg.Description)
	}
	found := false
	for _, f := range msg.Fields {
		if f.Name == "Rating" && f.Value == "unranked" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unranked field, got %+v", msg.Fields)
	}
}

func TestFormatMatchAbandonedIncludesReason(t *testing.T) {
	msg, ok := FormatMessage(MatchEvent{
		EventType: EventMatchAbandoned,
		SessionID: "ses_1",
		Reason:    coordinator.ReasonOpponentDisconnected,
	})
	if !ok {
		t.Fatal("expected formatted message")
	}
	if msg.Color != colorAbandoned {
		t.Fatalf("unexpected color %x", msg.Color)
	}
	last := msg.Fields[len(msg.Fields)-1]
	if last.Name != "Reason" || last.Value != coordinator.ReasonOpponentDisconnected {
		t.Fatalf("unexpected reason field %+v", last)
	}
}

func TestFormatUnknownEvent(t *testing.T) {
	if _, ok := FormatMessage(MatchEvent{EventType: "lobby_changed"}); ok {
		t.Fatal("unknown events must not be formatted")
	}
}
