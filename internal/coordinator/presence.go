package coordinator

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Register binds connID to a player. An unknown player id creates a record;
// a known one is a resume that re-binds the connection, cancels any pending
// grace task and restores session membership.
func (c *Coordinator) Register(connID string, req RegisterRequest, ident Identity) (RegisterResult, error) {
	if connID == "" || req.PlayerID == "" || len(req.PlayerID) > 128 {
		return RegisterResult{}, fmt.Errorf("%w: player_id required", ErrInvalidRequest)
	}
	name := normalizeName(req.DisplayName)
	if name == "" {
		name = normalizeName(ident.DisplayName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if bound, ok := c.conns[connID]; ok && bound != req.PlayerID {
		return RegisterResult{}, fmt.Errorf("%w: connection already initialized", ErrInvalidRequest)
	}
	now := c.now()

	p, exists := c.players[req.PlayerID]
	if !exists {
		if name == "" {
			name = defaultDisplayName
		}
		p = &player{
			id:           req.PlayerID,
			name:         name,
			accountID:    ident.AccountID,
			connID:       connID,
			status:       StatusOnline,
			lastActivity: now,
		}
		c.players[p.id] = p
		c.conns[connID] = p.id
		c.refreshGaugesLocked()
		log.Info().Str("player_id", p.id).Bool("ranked", p.accountID != "").Msg("player_registered")
		return RegisterResult{
			Status:      RegisterCreated,
			PlayerID:    p.id,
			DisplayName: p.name,
			PlayerState: p.status,
			Ranked:      p.accountID != "",
		}, nil
	}

	if p.accountID != "" && p.accountID != ident.AccountID {
		return RegisterResult{}, ErrIdentityMismatch
	}
	if p.accountID == "" && ident.AccountID != "" && p.sessionID == "" {
		p.accountID = ident.AccountID
	}
	if p.connID != "" && p.connID != connID {
		delete(c.conns, p.connID)
		c.notifier.Close(p.connID)
	}
	p.connID = connID
	c.conns[connID] = p.id
	p.lastActivity = now
	if name != "" {
		p.name = name
	}
	c.grace.cancel(p.id)
	resumesTotal.Add(1)

	res := RegisterResult{
		Status:      RegisterResumed,
		PlayerID:    p.id,
		DisplayName: p.name,
		Ranked:      p.accountID != "",
	}
	if p.sessionID != "" {
		if s, ok := c.sessions[p.sessionID]; ok {
			p.status = StatusInGame
			p.disconnectedAt = time.Time{}
			res.Session = c.resumeSessionLocked(s, p, req.LastEventID)
		} else {
			p.sessionID, p.role = "", ""
			p.status = StatusOnline
		}
	} else if p.status == StatusDisconnected {
		p.status = StatusOnline
	}
	if p.spectating != "" {
		if s, ok := c.sessions[p.spectating]; ok {
			s.mu.Lock()
			s.spectators[p.id] = connID
			s.mu.Unlock()
		}
	}
	res.PlayerState = p.status
	log.Info().Str("player_id", p.id).Str("session_id", p.sessionID).Msg("player_resumed")
	return res, nil
}

func (c *Coordinator) resumeSessionLocked(s *session, p *player, lastEventID int64) *ResumeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	me := s.participantFor(p.id)
	if me == nil {
		return nil
	}
	me.connID = p.connID
	me.connected = true
	me.name = p.name
	opp := s.participant(me.role.Other())
	if opp.connected {
		s.status = sessionActive
	}

	if lastEventID > 0 {
		for _, ev := range s.log.After(lastEventID) {
			if ev.From == me.role {
				continue
			}
			c.notifier.Push(p.connID, PushGameEvent, ev)
		}
	}
	signal := map[string]any{"session_id": s.id, "player_id": p.id}
	if opp.connected {
		c.notifier.Push(opp.connID, PushPlayerReconnected, signal)
	}
	for _, connID := range s.spectators {
		c.notifier.Push(connID, PushPlayerReconnected, signal)
	}
	return &ResumeState{
		SessionState:      s.stateLocked(),
		Role:              me.role,
		Opponent:          PlayerRef{PlayerID: opp.playerID, DisplayName: opp.name},
		OpponentConnected: opp.connected,
	}
}

func (c *Coordinator) UpdatePlayerName(connID, name string) error {
	name = normalizeName(name)
	if name == "" {
		return fmt.Errorf("%w: display_name required", ErrInvalidRequest)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	p.name = name
	p.lastActivity = c.now()
	if s, ok := c.sessions[p.sessionID]; ok {
		s.mu.Lock()
		if me := s.participantFor(p.id); me != nil {
			me.name = name
		}
		s.mu.Unlock()
	}
	if p.challengeID != "" {
		if ch, ok := c.challenges[p.challengeID]; ok && ch.challengerID == p.id {
			ch.challengerName = name
		}
	}
	if p.inLobby {
		c.broadcastLobbyLocked()
	}
	return nil
}

// EnterLobby makes the player available. A player still owning a session is
// treated as having left it.
func (c *Coordinator) EnterLobby(connID, name string) error {
	name = normalizeName(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	if name != "" {
		p.name = name
	}
	p.lastActivity = c.now()
	if s, ok := c.sessions[p.sessionID]; ok {
		log.Warn().Str("player_id", p.id).Str("session_id", s.id).Msg("stale_session_terminated_on_lobby_entry")
		c.abandonSessionLocked(s, p)
	}
	if p.spectating != "" {
		c.removeSpectatorLocked(p)
	}
	p.inLobby = true
	if p.status != StatusChallenging && p.status != StatusChallenged {
		p.status = StatusAvailable
	}
	c.broadcastLobbyLocked()
	return nil
}

func (c *Coordinator) LeaveLobby(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	p.lastActivity = c.now()
	if !p.inLobby {
		return nil
	}
	c.cancelChallengeOfLocked(p, ReasonPlayerLeft)
	p.inLobby = false
	p.status = StatusOnline
	c.broadcastLobbyLocked()
	return nil
}

func (c *Coordinator) Heartbeat(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return err
	}
	p.lastActivity = c.now()
	return nil
}

// Touch refreshes liveness for any inbound frame; unknown connections are
// ignored.
func (c *Coordinator) Touch(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, err := c.playerByConnLocked(connID); err == nil {
		p.lastActivity = c.now()
	}
}

func (c *Coordinator) ListLobby(connID string) (LobbySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return LobbySnapshot{}, err
	}
	p.lastActivity = c.now()
	snap := c.lobbySnapshotLocked(p.id)
	if p.status == StatusChallenged {
		if ch, ok := c.challenges[p.challengeID]; ok && ch.targetID == p.id {
			info := ch.info()
			snap.IncomingChallenge = &info
		}
	}
	return snap, nil
}

// PublicLobby is the snapshot without a requesting player.
func (c *Coordinator) PublicLobby() LobbySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbySnapshotLocked("")
}

func (c *Coordinator) lobbySnapshotLocked(self string) LobbySnapshot {
	snap := LobbySnapshot{
		Available:   []LobbyPlayer{},
		Challenging: []LobbyPlayer{},
		Sessions:    c.sessionSummariesLocked(),
	}
	for _, p := range c.players {
		if !p.inLobby || p.connID == "" {
			continue
		}
		entry := LobbyPlayer{PlayerID: p.id, DisplayName: p.name, Status: p.status, Ranked: p.accountID != ""}
		switch p.status {
		case StatusAvailable:
			if p.id != self {
				snap.Available = append(snap.Available, entry)
			}
		case StatusChallenging:
			snap.Challenging = append(snap.Challenging, entry)
		}
	}
	sortLobbyPlayers(snap.Available)
	sortLobbyPlayers(snap.Challenging)
	return snap
}

func (c *Coordinator) sessionSummariesLocked() []SessionSummary {
	out := make([]SessionSummary, 0, len(c.sessions))
	for _, s := range c.sessions {
		out = append(out, s.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}
