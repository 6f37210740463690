package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"matchhub/internal/auth"
	"matchhub/internal/coordinator"
	"matchhub/internal/rating"

	"github.com/gorilla/websocket"
)

type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

type testConn struct {
	t       *testing.T
	conn    *websocket.Conn
	seq     int
	pending []frame
}

func dial(t *testing.T, srv *httptest.Server, token string) *testConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testConn{t: t, conn: conn}
}

func (tc *testConn) read() frame {
	tc.t.Helper()
	_ = tc.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var f frame
	if err := tc.conn.ReadJSON(&f); err != nil {
		tc.t.Fatalf("read: %v", err)
	}
	return f
}

// call sends a request and returns its ack; pushes read meanwhile are kept.
func (tc *testConn) call(typ string, data any) frame {
	tc.t.Helper()
	tc.seq++
	id := fmt.Sprintf("r%d", tc.seq)
	req := map[string]any{"type": typ, "id": id}
	if data != nil {
		req["data"] = data
	}
	if err := tc.conn.WriteJSON(req); err != nil {
		tc.t.Fatalf("write: %v", err)
	}
	for {
		f := tc.read()
		if f.Type == TypeAck && f.ID == id {
			return f
		}
		tc.pending = append(tc.pending, f)
	}
}

func (tc *testConn) mustCall(typ string, data any, out any) {
	tc.t.Helper()
	f := tc.call(typ, data)
	if !f.OK {
		tc.t.Fatalf("%s failed: %s", typ, f.Error)
	}
	if out != nil {
		if err := json.Unmarshal(f.Data, out); err != nil {
			tc.t.Fatalf("decode %s ack: %v", typ, err)
		}
	}
}

func (tc *testConn) waitPush(typ string) frame {
	tc.t.Helper()
	for i, f := range tc.pending {
		if f.Type == typ {
			tc.pending = append(tc.pending[:i], tc.pending[i+1:]...)
			return f
		}
	}
	for {
		f := tc.read()
		if f.Type == typ {
			return f
		}
		tc.pending = append(tc.pending, f)
	}
}

func newTestServer(t *testing.T, verifier *auth.Verifier) (*httptest.Server, *coordinator.Coordinator) {
	t.Helper()
	engine := rating.NewEngine(rating.NewMemoryRepository(), rating.DefaultConfig())
	coord := coordinator.New(coordinator.Options{Recorder: engine})
	if verifier == nil {
		verifier = auth.NewVerifier("", "")
	}
	s := NewServer(coord, verifier, Options{SendBuffer: 64, PingInterval: time.Second})
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(srv.Close)
	return srv, coord
}

func TestMatchFlowOverWebSocket(t *testing.T) {
	srv, coord := newTestServer(t, nil)
	alice := dial(t, srv, "")
	bob := dial(t, srv, "")

	var reg coordinator.RegisterResult
	alice.mustCall(MsgInit, InitData{PlayerID: "alice", DisplayName: "Alice"}, &reg)
	if reg.Status != coordinator.RegisterCreated {
		t.Fatalf("expected created, got %+v", reg)
	}
	bob.mustCall(MsgInit, InitData{PlayerID: "bob", DisplayName: "Bob"}, nil)
	alice.mustCall(MsgEnterLobby, nil, nil)
	bob.mustCall(MsgEnterLobby, nil, nil)

	var snap coordinator.LobbySnapshot
	alice.mustCall(MsgGetLobbyPlayers, nil, &snap)
	if len(snap.Available) != 1 || snap.Available[0].PlayerID != "bob" {
		t.Fatalf("unexpected lobby %+v", snap)
	}

	var ch coordinator.ChallengeInfo
	alice.mustCall(MsgSendChallenge, ChallengeData{TargetID: "bob", HintsEnabled: true}, &ch)
	push := bob.waitPush(coordinator.PushChallenge)
	var incoming coordinator.ChallengeInfo
	_ = json.Unmarshal(push.Data, &incoming)
	if incoming.ChallengeID != ch.ChallengeID || incoming.ChallengerName != "Alice" {
		t.Fatalf("unexpected challenge push %s", push.Data)
	}

	var accepted coordinator.AcceptResult
	bob.mustCall(MsgAcceptChallenge, ChallengeRef{ChallengeID: ch.ChallengeID}, &accepted)
	if accepted.Role != coordinator.RoleGuest || accepted.Opponent.PlayerID != "alice" {
		t.Fatalf("unexpected accept ack %+v", accepted)
	}
	alice.waitPush(coordinator.PushChallengeAccepted)

	for i := 1; i <= 3; i++ {
		var res coordinator.RelayResult
		alice.mustCall(MsgGameEvent, GameEventData{Payload: json.RawMessage(fmt.Sprintf(`{"type":"move","n":%d}`, i))}, &res)
		if res.EventID != int64(i) {
			t.Fatalf("expected event id %d, got %d", i, res.EventID)
		}
	}
	for i := 1; i <= 3; i++ {
		f := bob.waitPush(coordinator.PushGameEvent)
		var ev coordinator.LoggedEvent
		if err := json.Unmarshal(f.Data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.EventID != int64(i) || string(ev.Payload) != fmt.Sprintf(`{"type":"move","n":%d}`, i) {
			t.Fatalf("unexpected relay %s", f.Data)
		}
	}

	bob.mustCall(MsgLeaveGame, nil, nil)
	ended := alice.waitPush(coordinator.PushGameEnded)
	if !strings.Contains(string(ended.Data), coordinator.ReasonOpponentLeft) {
		t.Fatalf("unexpected game end %s", ended.Data)
	}
	if st := coord.Stats(); st.Sessions != 0 {
		t.Fatalf("expected no sessions, got %d", st.Sessions)
	}
}

func TestDomainErrorsAreAcked(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := dial(t, srv, "")

	if f := c.call(MsgEnterLobby, nil); f.OK || f.Error != "not_initialized" {
		t.Fatalf("expected not_initialized, got %+v", f)
	}
	c.mustCall(MsgInit, InitData{PlayerID: "p1"}, nil)
	if f := c.call(MsgAcceptChallenge, ChallengeRef{ChallengeID: "chl_x"}); f.Error != "unknown_challenge" {
		t.Fatalf("expected unknown_challenge, got %+v", f)
	}
	if f := c.call("launchRocket", nil); f.Error != "invalid_request" {
		t.Fatalf("expected invalid_request for unknown type, got %+v", f)
	}
	if f := c.call(MsgGameEvent, GameEventData{Payload: json.RawMessage(`{"type":"goal"}`)}); f.Error != "not_in_session" {
		t.Fatalf("expected not_in_session, got %+v", f)
	}
	c.mustCall(MsgHeartbeat, nil, nil)
}

func TestDisconnectEntersGraceAndResumes(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	host := dial(t, srv, "")
	guest := dial(t, srv, "")
	host.mustCall(MsgInit, InitData{PlayerID: "host"}, nil)
	guest.mustCall(MsgInit, InitData{PlayerID: "guest"}, nil)
	host.mustCall(MsgEnterLobby, nil, nil)
	guest.mustCall(MsgEnterLobby, nil, nil)
	var ch coordinator.ChallengeInfo
	host.mustCall(MsgSendChallenge, ChallengeData{TargetID: "guest"}, &ch)
	guest.mustCall(MsgAcceptChallenge, ChallengeRef{ChallengeID: ch.ChallengeID}, nil)

	_ = host.conn.Close()
	guest.waitPush(coordinator.PushPlayerDisconnected)

	again := dial(t, srv, "")
	var reg coordinator.RegisterResult
	again.mustCall(MsgInit, InitData{PlayerID: "host"}, &reg)
	if reg.Status != coordinator.RegisterResumed || reg.Session == nil || reg.Session.Role != coordinator.RoleHost {
		t.Fatalf("expected session resume, got %+v", reg)
	}
	guest.waitPush(coordinator.PushPlayerReconnected)
}

func TestInvalidTokenIsRejected(t *testing.T) {
	verifier := auth.NewVerifier("secret", "matchhub")
	srv, _ := newTestServer(t, verifier)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	token, err := verifier.Issue("acc-1", "Alice", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	c := dial(t, srv, token)
	var reg coordinator.RegisterResult
	c.mustCall(MsgInit, InitData{PlayerID: "p1"}, &reg)
	if !reg.Ranked || reg.DisplayName != "Alice" {
		t.Fatalf("expected verified identity to apply, got %+v", reg)
	}
}
