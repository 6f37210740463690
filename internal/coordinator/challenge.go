package coordinator

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

func (ch *challenge) info() ChallengeInfo {
	return ChallengeInfo{
		ChallengeID:    ch.id,
		ChallengerID:   ch.challengerID,
		ChallengerName: ch.challengerName,
		TargetID:       ch.targetID,
		HintsEnabled:   ch.hints,
		CreatedAt:      ch.createdAt,
	}
}

// IssueChallenge moves challenger and target to challenging/challenged and
// sends the challenge to the target.
func (c *Coordinator) IssueChallenge(connID, targetID string, hints bool) (ChallengeInfo, error) {
	if targetID == "" {
		return ChallengeInfo{}, fmt.Errorf("%w: target_id required", ErrInvalidRequest)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return ChallengeInfo{}, err
	}
	p.lastActivity = c.now()
	if !p.inLobby || p.status != StatusAvailable {
		return ChallengeInfo{}, ErrNotInLobby
	}
	if targetID == p.id {
		return ChallengeInfo{}, ErrTargetUnavailable
	}
	t, ok := c.players[targetID]
	if !ok {
		return ChallengeInfo{}, ErrPlayerNotFound
	}
	if !t.inLobby || t.status != StatusAvailable || t.connID == "" {
		return ChallengeInfo{}, ErrTargetUnavailable
	}

	ch := &challenge{
		id:             c.newID("chl"),
		challengerID:   p.id,
		challengerName: p.name,
		targetID:       t.id,
		hints:          hints,
		createdAt:      c.now(),
	}
	c.challenges[ch.id] = ch
	p.challengeID, t.challengeID = ch.id, ch.id
	p.status, t.status = StatusChallenging, StatusChallenged
	challengesIssued.Add(1)

	info := ch.info()
	c.pushLocked(t, PushChallenge, info)
	c.broadcastLobbyLocked()
	log.Info().Str("challenge_id", ch.id).Str("challenger_id", p.id).Str("target_id", t.id).Msg("challenge_issued")
	return info, nil
}

// AcceptChallenge consumes the challenge and creates the session in one
// critical section. Both players are re-validated here, not only at issue.
func (c *Coordinator) AcceptChallenge(connID, challengeID string) (AcceptResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return AcceptResult{}, err
	}
	p.lastActivity = c.now()
	ch, ok := c.challenges[challengeID]
	if !ok {
		return AcceptResult{}, ErrUnknownChallenge
	}
	if ch.targetID != p.id {
		return AcceptResult{}, ErrNotYours
	}
	host, ok := c.players[ch.challengerID]
	if !ok {
		c.closeChallengeLocked(ch, ReasonPlayerLeft, "")
		return AcceptResult{}, ErrPlayerNotFound
	}
	if host.connID == "" || host.status != StatusChallenging || host.challengeID != ch.id ||
		p.status != StatusChallenged || p.challengeID != ch.id {
		c.closeChallengeLocked(ch, ReasonCancelled, "")
		return AcceptResult{}, ErrTargetUnavailable
	}

	delete(c.challenges, ch.id)
	host.challengeID, p.challengeID = "", ""
	s := newSession(c.newID("ses"), host, p, ch.hints, c.now(), c.eventLogSize)
	c.sessions[s.id] = s
	for _, pl := range []*player{host, p} {
		pl.status = StatusInGame
		pl.inLobby = false
		pl.sessionID = s.id
	}
	host.role, p.role = RoleHost, RoleGuest
	challengesAccept.Add(1)
	sessionsCreated.Add(1)
	c.refreshGaugesLocked()

	c.pushLocked(host, PushChallengeAccepted, AcceptResult{
		ChallengeID:  ch.id,
		SessionID:    s.id,
		Role:         RoleHost,
		Opponent:     PlayerRef{PlayerID: p.id, DisplayName: p.name},
		HintsEnabled: ch.hints,
	})
	c.broadcastLobbyLocked()
	c.observeStartedLocked(s)
	log.Info().Str("session_id", s.id).Str("host_id", host.id).Str("guest_id", p.id).Msg("session_created")
	return AcceptResult{
		ChallengeID:  ch.id,
		SessionID:    s.id,
		Role:         RoleGuest,
		Opponent:     PlayerRef{PlayerID: host.id, DisplayName: host.name},
		HintsEnabled: ch.hints,
	}, nil
}

// DeclineChallenge ends a pending handshake. The target declines, the
// challenger cancels; the counterpart is told which. It returns the reason.
func (c *Coordinator) DeclineChallenge(connID, challengeID string) (string, error) {
	return c.resolveChallenge(connID, challengeID, false)
}

// CancelChallenge is DeclineChallenge restricted to the challenger.
func (c *Coordinator) CancelChallenge(connID, challengeID string) error {
	_, err := c.resolveChallenge(connID, challengeID, true)
	return err
}

func (c *Coordinator) resolveChallenge(connID, challengeID string, challengerOnly bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.playerByConnLocked(connID)
	if err != nil {
		return "", err
	}
	p.lastActivity = c.now()
	ch, ok := c.challenges[challengeID]
	if !ok {
		return "", ErrUnknownChallenge
	}
	var reason string
	switch {
	case p.id == ch.challengerID:
		reason = ReasonCancelled
	case p.id == ch.targetID && !challengerOnly:
		reason = ReasonDeclined
	default:
		return "", ErrNotYours
	}
	c.closeChallengeLocked(ch, reason, p.id)
	return reason, nil
}

// cancelChallengeOfLocked drops whatever challenge p is party to.
func (c *Coordinator) cancelChallengeOfLocked(p *player, reason string) {
	if p.challengeID == "" {
		return
	}
	ch, ok := c.challenges[p.challengeID]
	if !ok {
		p.challengeID = ""
		return
	}
	c.closeChallengeLocked(ch, reason, p.id)
}

// closeChallengeLocked deletes ch, reverts both parties to available and
// notifies every party other than by.
func (c *Coordinator) closeChallengeLocked(ch *challenge, reason, by string) {
	delete(c.challenges, ch.id)
	challengesClosed.Add(1)
	push := PushChallengeCancelled
	if reason == ReasonDeclined {
		push = PushChallengeDeclined
	}
	payload := map[string]any{
		"challenge_id": ch.id,
		"reason":       reason,
	}
	for _, id := range []string{ch.challengerID, ch.targetID} {
		pl, ok := c.players[id]
		if !ok || pl.challengeID != ch.id {
			continue
		}
		pl.challengeID = ""
		if pl.status == StatusChallenging || pl.status == StatusChallenged {
			pl.status = StatusAvailable
		}
		if id != by {
			c.pushLocked(pl, push, payload)
		}
	}
	c.broadcastLobbyLocked()
	log.Info().Str("challenge_id", ch.id).Str("reason", reason).Msg("challenge_closed")
}
