package coordinator

import (
	"sort"
	"strings"
	"sync"
	"time"

	"matchhub/internal/store"
)

const (
	defaultReconnectGrace  = 30 * time.Second
	defaultLivenessTimeout = 2 * time.Minute
	maxDisplayNameRunes    = 32
	defaultDisplayName     = "Player"
)

type Options struct {
	ReconnectGrace  time.Duration
	LivenessTimeout time.Duration
	EventLogSize    int
	Notifier        Notifier
	Recorder        MatchRecorder
	Now             func() time.Time
	NewID           func(prefix string) string
}

// Coordinator owns presence, challenges and sessions for one process.
//
// Lock order: mu, then a session's mu. Registry, binding, challenge and
// session tables and every participant/spectator field change only under mu;
// per-session relay bookkeeping (score, turn, board, log) is guarded by the
// session's own mu so unrelated matches relay in parallel.
type Coordinator struct {
	mu         sync.Mutex
	players    map[string]*player
	conns      map[string]string
	challenges map[string]*challenge
	sessions   map[string]*session
	grace      *graceTimers

	notifier Notifier
	observer SessionObserver
	recorder MatchRecorder

	reconnectGrace  time.Duration
	livenessTimeout time.Duration
	eventLogSize    int
	now             func() time.Time
	newID           func(prefix string) string
}

func New(opts Options) *Coordinator {
	c := &Coordinator{
		players:         map[string]*player{},
		conns:           map[string]string{},
		challenges:      map[string]*challenge{},
		sessions:        map[string]*session{},
		grace:           newGraceTimers(),
		notifier:        opts.Notifier,
		recorder:        opts.Recorder,
		reconnectGrace:  opts.ReconnectGrace,
		livenessTimeout: opts.LivenessTimeout,
		eventLogSize:    opts.EventLogSize,
		now:             opts.Now,
		newID:           opts.NewID,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.reconnectGrace <= 0 {
		c.reconnectGrace = defaultReconnectGrace
	}
	if c.livenessTimeout <= 0 {
		c.livenessTimeout = defaultLivenessTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = store.NewPrefixedID
	}
	return c
}

func (c *Coordinator) ReconnectGrace() time.Duration { return c.reconnectGrace }

func (c *Coordinator) playerByConnLocked(connID string) (*player, error) {
	pid, ok := c.conns[connID]
	if !ok {
		return nil, ErrNotInitialized
	}
	p, ok := c.players[pid]
	if !ok || p.connID != connID {
		return nil, ErrNotInitialized
	}
	return p, nil
}

func (c *Coordinator) pushLocked(p *player, event string, data any) {
	if p == nil || p.connID == "" {
		return
	}
	c.notifier.Push(p.connID, event, data)
}

// broadcastLobbyLocked sends the lightweight change signal; clients re-pull
// the snapshot.
func (c *Coordinator) broadcastLobbyLocked() {
	for _, p := range c.players {
		if p.inLobby && p.connID != "" {
			c.notifier.Push(p.connID, PushLobbyChanged, struct{}{})
		}
	}
}

func (c *Coordinator) removePlayerLocked(p *player) {
	if p.connID != "" {
		delete(c.conns, p.connID)
	}
	c.grace.cancel(p.id)
	delete(c.players, p.id)
	c.refreshGaugesLocked()
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	lobby := 0
	for _, p := range c.players {
		if p.inLobby {
			lobby++
		}
	}
	return Stats{
		Players:      len(c.players),
		Lobby:        lobby,
		Sessions:     len(c.sessions),
		Challenges:   len(c.challenges),
		GracePending: c.grace.len(),
	}
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	r := []rune(name)
	if len(r) > maxDisplayNameRunes {
		r = r[:maxDisplayNameRunes]
	}
	return string(r)
}

func sortLobbyPlayers(list []LobbyPlayer) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].DisplayName != list[j].DisplayName {
			return list[i].DisplayName < list[j].DisplayName
		}
		return list[i].PlayerID < list[j].PlayerID
	})
}
