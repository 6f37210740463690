package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"matchhub/internal/rating"

	"github.com/rs/zerolog/log"
)

// RelayEvent appends the payload to the caller's session log and forwards it
// to the opponent and spectators. Delivery happens under the session lock so
// every recipient observes log order.
func (c *Coordinator) RelayEvent(ctx context.Context, connID string, payload json.RawMessage) (RelayResult, error) {
	ev, err := DecodeGameEvent(payload)
	if err != nil {
		return RelayResult{}, err
	}

	c.mu.Lock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		c.mu.Unlock()
		return RelayResult{}, err
	}
	p.lastActivity = c.now()
	s, ok := c.sessions[p.sessionID]
	role := p.role
	notifier := c.notifier
	c.mu.Unlock()
	if !ok {
		return RelayResult{}, ErrNotInSession
	}

	s.mu.Lock()
	if s.status == sessionClosed {
		s.mu.Unlock()
		return RelayResult{}, ErrNotInSession
	}
	s.applyLocked(ev)
	logged := s.log.Append(role, ev.Kind, ev.Raw)
	for _, to := range s.recipientsLocked(role) {
		notifier.Push(to, PushGameEvent, logged)
	}
	s.mu.Unlock()
	eventsRelayed.Add(1)

	res := RelayResult{EventID: logged.EventID, Kind: ev.Kind}
	if ev.Kind != KindGameOver {
		return res, nil
	}
	match, err := c.completeSession(ctx, s.id)
	if err != nil {
		return res, err
	}
	res.Match = match
	return res, nil
}

// completeSession closes a finished session and records the match outside
// coordinator locks. A second game_over for the same session is a no-op.
func (c *Coordinator) completeSession(ctx context.Context, sessionID string) (*rating.MatchResult, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	if !ok {
		c.mu.Unlock()
		return nil, nil
	}
	s.mu.Lock()
	host, guest := s.host, s.guest
	score := s.score
	s.mu.Unlock()
	summary := c.detachSessionLocked(s)
	for _, id := range []string{host.playerID, guest.playerID} {
		pl, ok := c.players[id]
		if !ok {
			continue
		}
		if pl.status == StatusInGame {
			pl.status = StatusOnline
		}
	}
	recorder := c.recorder
	c.broadcastLobbyLocked()
	c.mu.Unlock()

	in := rating.MatchInput{
		SessionID:  s.id,
		Host:       rating.Participant{AccountID: host.accountID, DisplayName: host.name, Score: score.Host},
		Guest:      rating.Participant{AccountID: guest.accountID, DisplayName: guest.name, Score: score.Guest},
		DurationMS: c.now().Sub(s.createdAt).Milliseconds(),
		EndedAt:    c.now(),
	}
	var (
		result *rating.MatchResult
		recErr error
	)
	if recorder != nil {
		res, err := recorder.RecordMatch(ctx, in)
		if err != nil {
			ratingFailures.Add(1)
			log.Error().Err(err).Str("session_id", s.id).Msg("record_match_failed")
			recErr = fmt.Errorf("record match: %w", err)
		} else {
			result = &res
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if result != nil {
		for _, id := range []string{host.playerID, guest.playerID} {
			c.pushLocked(c.players[id], PushMatchResult, result)
		}
	}
	c.observeClosedLocked(summary, SessionClosed{Reason: ReasonCompleted, Result: result})
	log.Info().Str("session_id", s.id).Int("host_score", score.Host).Int("guest_score", score.Guest).Msg("session_completed")
	return result, recErr
}

// detachSessionLocked closes s, evicts spectators back to the lobby and
// clears participant membership. Participant statuses are left to callers.
func (c *Coordinator) detachSessionLocked(s *session) SessionSummary {
	s.mu.Lock()
	s.status = sessionClosed
	summary := s.summaryLocked()
	spectators := make([]string, 0, len(s.spectators))
	for id := range s.spectators {
		spectators = append(spectators, id)
	}
	s.spectators = map[string]string{}
	hostID, guestID := s.host.playerID, s.guest.playerID
	s.mu.Unlock()
	s.log.Close()
	delete(c.sessions, s.id)

	ended := map[string]any{"session_id": s.id, "reason": ReasonGameEnded}
	for _, id := range spectators {
		sp, ok := c.players[id]
		if !ok || sp.spectating != s.id {
			continue
		}
		sp.spectating = ""
		c.pushLocked(sp, PushGameEnded, ended)
		if sp.connID != "" {
			sp.status = StatusAvailable
			sp.inLobby = true
		}
	}
	for _, id := range []string{hostID, guestID} {
		if pl, ok := c.players[id]; ok && pl.sessionID == s.id {
			pl.sessionID, pl.role = "", ""
		}
	}
	sessionsClosed.Add(1)
	c.refreshGaugesLocked()
	return summary
}

// abandonSessionLocked is the graceful exit path: the opponent is told
// opponent_left and freed, the leaver goes back online.
func (c *Coordinator) abandonSessionLocked(s *session, leaver *player) {
	s.mu.Lock()
	me := s.participantFor(leaver.id)
	var oppID string
	if me != nil {
		oppID = s.participant(me.role.Other()).playerID
	}
	s.mu.Unlock()

	summary := c.detachSessionLocked(s)
	leaver.status = StatusOnline
	if opp, ok := c.players[oppID]; ok {
		c.pushLocked(opp, PushGameEnded, map[string]any{"session_id": s.id, "reason": ReasonOpponentLeft})
		c.freeOrRemoveLocked(opp)
	}
	c.broadcastLobbyLocked()
	c.observeClosedLocked(summary, SessionClosed{Reason: ReasonAbandoned})
	log.Info().Str("session_id", s.id).Str("player_id", leaver.id).Msg("session_left")
}

// freeOrRemoveLocked returns a reachable player to the lobby; an unreachable
// one has nothing left to resume and is removed.
func (c *Coordinator) freeOrRemoveLocked(p *player) {
	if p.connID == "" {
		c.removePlayerLocked(p)
		return
	}
	p.status = StatusAvailable
	p.inLobby = true
}

func (c *Coordinator) LeaveGame(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	p.lastActivity = c.now()
	s, ok := c.sessions[p.sessionID]
	if !ok {
		return ErrNotInSession
	}
	c.abandonSessionLocked(s, p)
	return nil
}

// JoinSpectator adds the caller to a session's spectator set and returns the
// current state as a baseline. No backlog is replayed.
func (c *Coordinator) JoinSpectator(connID, sessionID string) (SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return SessionState{}, err
	}
	p.lastActivity = c.now()
	if p.sessionID != "" {
		return SessionState{}, ErrAlreadyInGame
	}
	s, ok := c.sessions[sessionID]
	if !ok {
		return SessionState{}, ErrGameNotFound
	}
	if s.status != sessionActive {
		return SessionState{}, ErrGameNotActive
	}
	if p.spectating != "" && p.spectating != s.id {
		c.removeSpectatorLocked(p)
	}
	c.cancelChallengeOfLocked(p, ReasonPlayerLeft)
	wasInLobby := p.inLobby
	p.inLobby = false
	p.status = StatusSpectating
	p.spectating = s.id

	s.mu.Lock()
	s.spectators[p.id] = p.connID
	state := s.stateLocked()
	c.pushSpectatorCountLocked(s)
	s.mu.Unlock()

	if wasInLobby {
		c.broadcastLobbyLocked()
	}
	return state, nil
}

func (c *Coordinator) LeaveSpectator(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	p.lastActivity = c.now()
	if p.spectating == "" {
		return ErrNotInSession
	}
	c.removeSpectatorLocked(p)
	p.status = StatusOnline
	return nil
}

func (c *Coordinator) removeSpectatorLocked(p *player) {
	s, ok := c.sessions[p.spectating]
	p.spectating = ""
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.spectators, p.id)
	c.pushSpectatorCountLocked(s)
	s.mu.Unlock()
}

// pushSpectatorCountLocked requires s.mu.
func (c *Coordinator) pushSpectatorCountLocked(s *session) {
	update := map[string]any{"session_id": s.id, "count": len(s.spectators)}
	for _, part := range []participant{s.host, s.guest} {
		if part.connected && part.connID != "" {
			c.notifier.Push(part.connID, PushSpectatorUpdate, update)
		}
	}
}

// Sessions lists live sessions oldest first.
func (c *Coordinator) Sessions() []SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionSummariesLocked()
}

func (c *Coordinator) SessionState(sessionID string) (SessionState, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	c.mu.Unlock()
	if !ok {
		return SessionState{}, ErrGameNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(), nil
}

// SubscribeSession returns the current state and a stream of events relayed
// after it, for read-only observers outside the lobby. The channel closes when
// the session ends; cancel releases it early.
func (c *Coordinator) SubscribeSession(sessionID string) (SessionState, <-chan LoggedEvent, func(), error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	c.mu.Unlock()
	if !ok {
		return SessionState{}, nil, nil, ErrGameNotFound
	}
	s.mu.Lock()
	state := s.stateLocked()
	ch := s.log.Subscribe()
	s.mu.Unlock()
	return state, ch, func() { s.log.Unsubscribe(ch) }, nil
}
