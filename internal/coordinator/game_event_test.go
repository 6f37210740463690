package coordinator

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeGameEvent(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		kind    EventKind
		score   *Score
		turn    Role
	}{
		{"goal", `{"type":"goal","score":{"host":1,"guest":0}}`, KindScore, &Score{Host: 1}, ""},
		{"goal without score", `{"type":"goal"}`, KindOpaque, nil, ""},
		{"negative score", `{"type":"score","score":{"host":-1,"guest":0}}`, KindOpaque, nil, ""},
		{"board", `{"type":"board_init","board":{"a":1}}`, KindBoardInit, nil, ""},
		{"null board", `{"type":"piece_moved","board":null}`, KindOpaque, nil, ""},
		{"turn", `{"type":"turn","turn":"guest"}`, KindTurn, nil, RoleGuest},
		{"bad turn", `{"type":"turn","turn":"nobody"}`, KindOpaque, nil, ""},
		{"game over", `{"type":"game_over"}`, KindGameOver, nil, ""},
		{"unknown", `{"type":"emote","icon":"wave"}`, KindOpaque, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := DecodeGameEvent(json.RawMessage(tc.payload))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ev.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ev.Kind)
			}
			if (tc.score == nil) != (ev.Score == nil) || (tc.score != nil && *tc.score != *ev.Score) {
				t.Fatalf("expected score %+v, got %+v", tc.score, ev.Score)
			}
			if ev.Turn != tc.turn {
				t.Fatalf("expected turn %q, got %q", tc.turn, ev.Turn)
			}
			if string(ev.Raw) != tc.payload {
				t.Fatalf("raw payload altered: %s", ev.Raw)
			}
		})
	}
}

func TestDecodeGameEventRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{``, `null`, `"x"`, `[1]`, `{bad`} {
		if _, err := DecodeGameEvent(json.RawMessage(payload)); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("payload %q: expected invalid_request, got %v", payload, err)
		}
	}
}

func TestMergeBoard(t *testing.T) {
	merged := mergeBoard(json.RawMessage(`{"a":1,"b":2}`), json.RawMessage(`{"b":null,"c":3}`))
	var got map[string]int
	if err := json.Unmarshal(merged, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got["a"] != 1 || got["c"] != 3 {
		t.Fatalf("unexpected merge %v", got)
	}

	replaced := mergeBoard(json.RawMessage(`{"a":1}`), json.RawMessage(`[1,2,3]`))
	if string(replaced) != `[1,2,3]` {
		t.Fatalf("expected non-object patch to replace, got %s", replaced)
	}

	fresh := mergeBoard(nil, json.RawMessage(`{"a":1}`))
	if string(fresh) != `{"a":1}` {
		t.Fatalf("expected merge onto empty board, got %s", fresh)
	}
}

func TestEventLogRetentionAndAfter(t *testing.T) {
	l := NewEventLog("ses_1", 3)
	for i := 0; i < 5; i++ {
		l.Append(RoleHost, KindOpaque, json.RawMessage(`{}`))
	}
	if l.LastID() != 5 {
		t.Fatalf("expected last id 5, got %d", l.LastID())
	}
	after := l.After(0)
	if len(after) != 3 || after[0].EventID != 3 {
		t.Fatalf("expected retained ids 3..5, got %+v", after)
	}
	if got := l.After(4); len(got) != 1 || got[0].EventID != 5 {
		t.Fatalf("unexpected after(4) %+v", got)
	}
	l.Close()
	if ev := l.Append(RoleGuest, KindOpaque, nil); ev.EventID != 0 {
		t.Fatalf("closed log must not accept events")
	}
}

func TestErrorCode(t *testing.T) {
	if got := ErrorCode(ErrUnknownChallenge); got != "unknown_challenge" {
		t.Fatalf("unexpected code %q", got)
	}
	wrapped := errors.Join(errors.New("context"), ErrGameNotFound)
	if got := ErrorCode(wrapped); got != "game_not_found" {
		t.Fatalf("expected wrapped code, got %q", got)
	}
	if got := ErrorCode(errors.New("boom")); got != CodeInternal {
		t.Fatalf("expected internal_error, got %q", got)
	}
	if IsDomainError(errors.New("boom")) || !IsDomainError(ErrNotYours) {
		t.Fatalf("IsDomainError misclassified")
	}
	if ErrorCode(nil) != "" {
		t.Fatalf("nil error must have no code")
	}
}
