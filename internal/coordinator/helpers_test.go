package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"matchhub/internal/rating"
)

type pushed struct {
	event string
	data  any
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes map[string][]pushed
	closed map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{pushes: map[string][]pushed{}, closed: map[string]int{}}
}

func (n *recordingNotifier) Push(connID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes[connID] = append(n.pushes[connID], pushed{event: event, data: data})
}

func (n *recordingNotifier) Close(connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed[connID]++
}

func (n *recordingNotifier) of(connID, event string) []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]any, 0)
	for _, p := range n.pushes[connID] {
		if p.event == event {
			out = append(out, p.data)
		}
	}
	return out
}

func (n *recordingNotifier) count(connID, event string) int {
	return len(n.of(connID, event))
}

func (n *recordingNotifier) relayedIDs(connID string) []int64 {
	out := make([]int64, 0)
	for _, d := range n.of(connID, PushGameEvent) {
		out = append(out, d.(LoggedEvent).EventID)
	}
	return out
}

type manualGrace struct {
	mu    sync.Mutex
	fires []func()
}

func (m *manualGrace) afterFunc(_ time.Duration, f func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fires = append(m.fires, f)
	return time.NewTimer(time.Hour)
}

func (m *manualGrace) fire(i int) {
	m.mu.Lock()
	f := m.fires[i]
	m.mu.Unlock()
	f()
}

func (m *manualGrace) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.fires)
}

type fixture struct {
	t        *testing.T
	c        *Coordinator
	n        *recordingNotifier
	grace    *manualGrace
	recorder *rating.Engine
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := newRecordingNotifier()
	engine := rating.NewEngine(rating.NewMemoryRepository(), rating.DefaultConfig())
	f := &fixture{t: t, n: n, grace: &manualGrace{}, recorder: engine}
	f.c = New(Options{
		ReconnectGrace: 30 * time.Second,
		Notifier:       n,
		Recorder:       engine,
		NewID: func(prefix string) string {
			f.seq++
			return fmt.Sprintf("%s_%d", prefix, f.seq)
		},
	})
	f.c.grace.afterFunc = f.grace.afterFunc
	return f
}

func (f *fixture) register(connID, playerID string, ident Identity) RegisterResult {
	f.t.Helper()
	res, err := f.c.Register(connID, RegisterRequest{PlayerID: playerID, DisplayName: playerID}, ident)
	if err != nil {
		f.t.Fatalf("register %s: %v", playerID, err)
	}
	return res
}

func (f *fixture) lobbyPlayer(connID, playerID string) {
	f.t.Helper()
	f.register(connID, playerID, Identity{})
	if err := f.c.EnterLobby(connID, ""); err != nil {
		f.t.Fatalf("enter lobby %s: %v", playerID, err)
	}
}

// match puts host (conn-h) and guest (conn-g) into a session and returns its id.
func (f *fixture) match(hostIdent, guestIdent Identity) string {
	f.t.Helper()
	f.register("conn-h", "host", hostIdent)
	f.register("conn-g", "guest", guestIdent)
	for _, conn := range []string{"conn-h", "conn-g"} {
		if err := f.c.EnterLobby(conn, ""); err != nil {
			f.t.Fatalf("enter lobby: %v", err)
		}
	}
	ch, err := f.c.IssueChallenge("conn-h", "guest", true)
	if err != nil {
		f.t.Fatalf("issue: %v", err)
	}
	res, err := f.c.AcceptChallenge("conn-g", ch.ChallengeID)
	if err != nil {
		f.t.Fatalf("accept: %v", err)
	}
	return res.SessionID
}

func (f *fixture) relay(connID, payload string) RelayResult {
	f.t.Helper()
	res, err := f.c.RelayEvent(context.Background(), connID, json.RawMessage(payload))
	if err != nil {
		f.t.Fatalf("relay %s: %v", payload, err)
	}
	return res
}

func (f *fixture) status(playerID string) Status {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	p, ok := f.c.players[playerID]
	if !ok {
		return ""
	}
	return p.status
}

func (f *fixture) hasSession(id string) bool {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()
	_, ok := f.c.sessions[id]
	return ok
}

func reasonOf(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	r, _ := m["reason"].(string)
	return r
}
