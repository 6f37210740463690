package coordinator

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type EventKind string

const (
	KindScore      EventKind = "score"
	KindBoardInit  EventKind = "board_init"
	KindPieceMoved EventKind = "piece_moved"
	KindTurn       EventKind = "turn"
	KindGameOver   EventKind = "game_over"
	KindOpaque     EventKind = "opaque"
)

// GameEvent is a relayed payload plus the few fields the coordinator keeps
// bookkeeping for. Raw is always forwarded unchanged.
type GameEvent struct {
	Kind  EventKind
	Raw   json.RawMessage
	Score *Score
	Board json.RawMessage
	Turn  Role
}

type eventFields struct {
	Type  string          `json:"type"`
	Score json.RawMessage `json:"score"`
	Board json.RawMessage `json:"board"`
	Turn  json.RawMessage `json:"turn"`
}

// DecodeGameEvent classifies a client payload. The payload must be a JSON
// object; malformed interpreted fields downgrade the event to opaque rather
// than rejecting it.
func DecodeGameEvent(raw json.RawMessage) (GameEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return GameEvent{}, fmt.Errorf("%w: payload must be an object", ErrInvalidRequest)
	}
	var f eventFields
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return GameEvent{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	ev := GameEvent{Kind: KindOpaque, Raw: append(json.RawMessage(nil), trimmed...)}
	ev.Turn = decodeRole(f.Turn)
	score := decodeScore(f.Score)

	switch f.Type {
	case "goal", "score":
		if score != nil {
			ev.Kind = KindScore
			ev.Score = score
		}
	case "board_init":
		if present(f.Board) {
			ev.Kind = KindBoardInit
			ev.Board = f.Board
		}
	case "piece_moved":
		if present(f.Board) {
			ev.Kind = KindPieceMoved
			ev.Board = f.Board
		}
	case "turn", "turn_change":
		if ev.Turn != "" {
			ev.Kind = KindTurn
		}
	case "game_over":
		ev.Kind = KindGameOver
		ev.Score = score
	}
	return ev, nil
}

func present(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && !bytes.Equal(t, []byte("null"))
}

func decodeScore(raw json.RawMessage) *Score {
	if !present(raw) {
		return nil
	}
	var s Score
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	if s.Host < 0 || s.Guest < 0 {
		return nil
	}
	return &s
}

func decodeRole(raw json.RawMessage) Role {
	if !present(raw) {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch Role(v) {
	case RoleHost, RoleGuest:
		return Role(v)
	}
	return ""
}

// mergeBoard applies patch to base one key deep when both are objects; a null
// value removes the key. Anything else replaces the snapshot.
func mergeBoard(base, patch json.RawMessage) json.RawMessage {
	var patchObj map[string]json.RawMessage
	if err := json.Unmarshal(patch, &patchObj); err != nil || patchObj == nil {
		return cloneRaw(patch)
	}
	baseObj := map[string]json.RawMessage{}
	if present(base) {
		if err := json.Unmarshal(base, &baseObj); err != nil || baseObj == nil {
			baseObj = map[string]json.RawMessage{}
		}
	}
	for k, v := range patchObj {
		if !present(v) {
			delete(baseObj, k)
			continue
		}
		baseObj[k] = v
	}
	out, err := json.Marshal(baseObj)
	if err != nil {
		return cloneRaw(patch)
	}
	return out
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
