package coordinator

import (
	"context"

	"matchhub/internal/rating"
)

// Push names delivered through the Notifier.
const (
	PushLobbyChanged       = "lobbyChanged"
	PushChallenge          = "challenge"
	PushChallengeAccepted  = "challengeAccepted"
	PushChallengeDeclined  = "challengeDeclined"
	PushChallengeCancelled = "challengeCancelled"
	PushGameEvent          = "gameEvent"
	PushPlayerDisconnected = "playerDisconnected"
	PushPlayerReconnected  = "playerReconnected"
	PushGameEnded          = "gameEnded"
	PushSpectatorUpdate    = "spectatorUpdate"
	PushMatchResult        = "matchResult"
)

// Notifier delivers pushes to connections. Implementations must not block
// and must not call back into the Coordinator; they are invoked with
// coordinator locks held.
type Notifier interface {
	Push(connID, event string, data any)
	Close(connID string)
}

type nopNotifier struct{}

func (nopNotifier) Push(string, string, any) {}
func (nopNotifier) Close(string)             {}

// MatchRecorder receives completed matches. *rating.Engine satisfies it.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, in rating.MatchInput) (rating.MatchResult, error)
}

type SessionClosed struct {
	Reason string
	Result *rating.MatchResult
}

// SessionObserver is told about session lifecycle changes. Calls happen
// with coordinator locks held and must return quickly.
type SessionObserver interface {
	OnSessionStarted(s SessionSummary)
	OnSessionClosed(s SessionSummary, closed SessionClosed)
}

func (c *Coordinator) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		n = nopNotifier{}
	}
	c.notifier = n
}

func (c *Coordinator) SetSessionObserver(obs SessionObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = obs
}

func (c *Coordinator) observeStartedLocked(s *session) {
	if c.observer == nil {
		return
	}
	c.observer.OnSessionStarted(s.summary())
}

func (c *Coordinator) observeClosedLocked(summary SessionSummary, closed SessionClosed) {
	if c.observer == nil {
		return
	}
	c.observer.OnSessionClosed(summary, closed)
}
