package coordinator

import (
	"time"

	"github.com/rs/zerolog/log"
)

type graceTask struct {
	token uint64
	timer *time.Timer
}

// graceTimers holds at most one cancellable grace task per player. It is
// guarded by Coordinator.mu; a fired timer must claim its token under that
// lock, so a task cancelled by a resume can never act.
type graceTimers struct {
	seq       uint64
	tasks     map[string]graceTask
	afterFunc func(time.Duration, func()) *time.Timer
}

func newGraceTimers() *graceTimers {
	return &graceTimers{tasks: map[string]graceTask{}, afterFunc: time.AfterFunc}
}

func (g *graceTimers) schedule(playerID string, d time.Duration, fire func(token uint64)) uint64 {
	g.cancel(playerID)
	g.seq++
	token := g.seq
	g.tasks[playerID] = graceTask{token: token, timer: g.afterFunc(d, func() { fire(token) })}
	return token
}

func (g *graceTimers) cancel(playerID string) bool {
	t, ok := g.tasks[playerID]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(g.tasks, playerID)
	return true
}

func (g *graceTimers) claim(playerID string, token uint64) bool {
	t, ok := g.tasks[playerID]
	if !ok || t.token != token {
		return false
	}
	delete(g.tasks, playerID)
	return true
}

func (g *graceTimers) has(playerID string) bool {
	_, ok := g.tasks[playerID]
	return ok
}

func (g *graceTimers) len() int { return len(g.tasks) }

// Disconnect handles a dropped connection. A session participant enters the
// grace window; anyone else is removed and their pending challenge is
// cancelled. Unknown or superseded connections are ignored.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid, ok := c.conns[connID]
	if !ok {
		return
	}
	delete(c.conns, connID)
	p, ok := c.players[pid]
	if !ok || p.connID != connID {
		return
	}
	p.connID = ""
	if s, ok := c.sessions[p.sessionID]; ok {
		c.interruptSessionLocked(s, p)
		return
	}

	wasInLobby := p.inLobby
	c.cancelChallengeOfLocked(p, ReasonPlayerLeft)
	if p.spectating != "" {
		c.removeSpectatorLocked(p)
	}
	c.removePlayerLocked(p)
	if wasInLobby {
		c.broadcastLobbyLocked()
	}
	log.Info().Str("player_id", p.id).Msg("player_disconnected")
}

func (c *Coordinator) interruptSessionLocked(s *session, p *player) {
	p.status = StatusDisconnected
	p.disconnectedAt = c.now()

	s.mu.Lock()
	me := s.participantFor(p.id)
	if me == nil {
		s.mu.Unlock()
		return
	}
	me.connected = false
	me.connID = ""
	opp := *s.participant(me.role.Other())
	s.status = sessionInterrupted
	spectators := make([]string, 0, len(s.spectators))
	for _, connID := range s.spectators {
		spectators = append(spectators, connID)
	}
	s.mu.Unlock()

	if !opp.connected {
		log.Info().Str("session_id", s.id).Msg("session_both_unreachable")
		c.teardownLocked(s)
		return
	}

	signal := map[string]any{
		"session_id": s.id,
		"player_id":  p.id,
		"grace_ms":   c.reconnectGrace.Milliseconds(),
	}
	c.notifier.Push(opp.connID, PushPlayerDisconnected, signal)
	for _, connID := range spectators {
		c.notifier.Push(connID, PushPlayerDisconnected, signal)
	}
	graceStarted.Add(1)
	pid := p.id
	c.grace.schedule(pid, c.reconnectGrace, func(token uint64) { c.expireGrace(pid, token) })
	log.Info().Str("session_id", s.id).Str("player_id", pid).Dur("grace", c.reconnectGrace).Msg("reconnect_grace_started")
}

// expireGrace is the timer callback. It acts only if its task is still the
// current one and the player is still disconnected, so late or repeated
// firings are no-ops.
func (c *Coordinator) expireGrace(playerID string, token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.grace.claim(playerID, token) {
		return false
	}
	p, ok := c.players[playerID]
	if !ok || p.status != StatusDisconnected || p.connID != "" {
		return false
	}
	c.finalizeDisconnectedLocked(p)
	return true
}

func (c *Coordinator) finalizeDisconnectedLocked(p *player) {
	graceExpired.Add(1)
	if s, ok := c.sessions[p.sessionID]; ok {
		s.mu.Lock()
		var oppID string
		if me := s.participantFor(p.id); me != nil {
			oppID = s.participant(me.role.Other()).playerID
		}
		s.mu.Unlock()

		summary := c.detachSessionLocked(s)
		if opp, ok := c.players[oppID]; ok {
			c.pushLocked(opp, PushGameEnded, map[string]any{"session_id": s.id, "reason": ReasonOpponentDisconnected})
			c.freeOrRemoveLocked(opp)
		}
		c.observeClosedLocked(summary, SessionClosed{Reason: ReasonOpponentDisconnected})
		log.Info().Str("session_id", s.id).Str("player_id", p.id).Msg("reconnect_grace_expired")
	}
	c.removePlayerLocked(p)
	c.broadcastLobbyLocked()
}

// teardownLocked ends a session nobody can resume and drops its unreachable
// participants.
func (c *Coordinator) teardownLocked(s *session) {
	s.mu.Lock()
	ids := []string{s.host.playerID, s.guest.playerID}
	s.mu.Unlock()
	summary := c.detachSessionLocked(s)
	for _, id := range ids {
		if pl, ok := c.players[id]; ok && pl.connID == "" {
			c.removePlayerLocked(pl)
		}
	}
	c.broadcastLobbyLocked()
	c.observeClosedLocked(summary, SessionClosed{Reason: ReasonAbandoned})
}
