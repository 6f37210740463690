package spectatorgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchhub/internal/coordinator"

	"github.com/go-chi/chi/v5"
)

func TestStateHandlerReturnsBaseline(t *testing.T) {
	c, sid := setupSession(t)
	ctx := context.Background()
	c.RelayEvent(ctx, "conn-h", json.RawMessage(`{"type":"board_init","board":{"e4":"pawn"}}`))
	c.RelayEvent(ctx, "conn-g", json.RawMessage(`{"type":"goal","score":{"host":0,"guest":1},"turn":"host"}`))

	router := chi.NewRouter()
	router.Get("/sessions/{session_id}/state", StateHandler(c))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+sid+"/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var state coordinator.SessionState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.SessionID != sid || state.Score.Guest != 1 || state.Turn != coordinator.RoleHost || state.LastEventID != 2 {
		t.Fatalf("unexpected state %+v", state)
	}
	if string(state.Board) != `{"e4":"pawn"}` {
		t.Fatalf("unexpected board %s", state.Board)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/nope/state", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
