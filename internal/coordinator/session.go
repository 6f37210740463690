package coordinator

import (
	"encoding/json"
	"sync"
	"time"
)

type session struct {
	mu         sync.Mutex
	id         string
	hints      bool
	createdAt  time.Time
	status     sessionStatus
	host       participant
	guest      participant
	score      Score
	turn       Role
	board      json.RawMessage
	spectators map[string]string
	log        *EventLog
}

func newSession(id string, host, guest *player, hints bool, now time.Time, logSize int) *session {
	return &session{
		id:        id,
		hints:     hints,
		createdAt: now,
		status:    sessionActive,
		host: participant{
			role: RoleHost, playerID: host.id, name: host.name, accountID: host.accountID,
			connID: host.connID, connected: host.connID != "",
		},
		guest: participant{
			role: RoleGuest, playerID: guest.id, name: guest.name, accountID: guest.accountID,
			connID: guest.connID, connected: guest.connID != "",
		},
		turn:       RoleHost,
		spectators: map[string]string{},
		log:        NewEventLog(id, logSize),
	}
}

func (s *session) participant(role Role) *participant {
	if role == RoleHost {
		return &s.host
	}
	return &s.guest
}

func (s *session) participantFor(playerID string) *participant {
	switch playerID {
	case s.host.playerID:
		return &s.host
	case s.guest.playerID:
		return &s.guest
	}
	return nil
}

// applyLocked updates bookkeeping for the interpreted event kinds. Score only
// ever comes from score-bearing kinds.
func (s *session) applyLocked(ev GameEvent) {
	switch ev.Kind {
	case KindScore, KindGameOver:
		if ev.Score != nil {
			s.score = *ev.Score
		}
	case KindBoardInit:
		s.board = cloneRaw(ev.Board)
	case KindPieceMoved:
		s.board = mergeBoard(s.board, ev.Board)
	}
	if ev.Turn != "" {
		s.turn = ev.Turn
	}
}

// recipientsLocked lists the connections an event from role is relayed to:
// the other participant when reachable, then every spectator.
func (s *session) recipientsLocked(from Role) []string {
	out := make([]string, 0, 1+len(s.spectators))
	if other := s.participant(from.Other()); other.connected && other.connID != "" {
		out = append(out, other.connID)
	}
	for _, connID := range s.spectators {
		if connID != "" {
			out = append(out, connID)
		}
	}
	return out
}

func (s *session) summaryLocked() SessionSummary {
	return SessionSummary{
		SessionID:    s.id,
		Status:       string(s.status),
		Host:         PlayerRef{PlayerID: s.host.playerID, DisplayName: s.host.name},
		Guest:        PlayerRef{PlayerID: s.guest.playerID, DisplayName: s.guest.name},
		Score:        s.score,
		Turn:         s.turn,
		HintsEnabled: s.hints,
		Spectators:   len(s.spectators),
		CreatedAt:    s.createdAt,
	}
}

func (s *session) summary() SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *session) stateLocked() SessionState {
	return SessionState{
		SessionSummary: s.summaryLocked(),
		Board:          cloneRaw(s.board),
		LastEventID:    s.log.LastID(),
	}
}
