package coordinator

import (
	"encoding/json"
	"time"

	"matchhub/internal/rating"
)

type Status string

const (
	StatusOnline       Status = "online"
	StatusAvailable    Status = "available"
	StatusChallenging  Status = "challenging"
	StatusChallenged   Status = "challenged"
	StatusInGame       Status = "in_game"
	StatusSpectating   Status = "spectating"
	StatusDisconnected Status = "disconnected"
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

func (r Role) Other() Role {
	if r == RoleHost {
		return RoleGuest
	}
	return RoleHost
}

// Identity is what the credential layer attached to a connection. A zero
// Identity is a guest.
type Identity struct {
	AccountID   string
	DisplayName string
}

type sessionStatus string

const (
	sessionActive      sessionStatus = "active"
	sessionInterrupted sessionStatus = "interrupted"
	sessionClosed      sessionStatus = "closed"
)

const (
	ReasonOpponentLeft         = "opponent_left"
	ReasonGameEnded            = "game_ended"
	ReasonOpponentDisconnected = "opponent_disconnected"
	ReasonCompleted            = "completed"
	ReasonAbandoned            = "abandoned"

	ReasonDeclined   = "declined"
	ReasonCancelled  = "cancelled"
	ReasonPlayerLeft = "player_left"
)

type player struct {
	id             string
	name           string
	accountID      string
	connID         string
	status         Status
	inLobby        bool
	sessionID      string
	role           Role
	spectating     string
	challengeID    string
	lastActivity   time.Time
	disconnectedAt time.Time
}

type challenge struct {
	id             string
	challengerID   string
	challengerName string
	targetID       string
	hints          bool
	createdAt      time.Time
}

type participant struct {
	role      Role
	playerID  string
	name      string
	accountID string
	connID    string
	connected bool
}

type Score struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

type PlayerRef struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

type LobbyPlayer struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Status      Status `json:"status"`
	Ranked      bool   `json:"ranked"`
}

type ChallengeInfo struct {
	ChallengeID    string    `json:"challenge_id"`
	ChallengerID   string    `json:"challenger_id"`
	ChallengerName string    `json:"challenger_name"`
	TargetID       string    `json:"target_id"`
	HintsEnabled   bool      `json:"hints_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Status       string    `json:"status"`
	Host         PlayerRef `json:"host"`
	Guest        PlayerRef `json:"guest"`
	Score        Score     `json:"score"`
	Turn         Role      `json:"turn,omitempty"`
	HintsEnabled bool      `json:"hints_enabled"`
	Spectators   int       `json:"spectators"`
	CreatedAt    time.Time `json:"created_at"`
}

type LobbySnapshot struct {
	Available         []LobbyPlayer    `json:"available"`
	Challenging       []LobbyPlayer    `json:"challenging"`
	Sessions          []SessionSummary `json:"sessions"`
	IncomingChallenge *ChallengeInfo   `json:"incoming_challenge,omitempty"`
}

// SessionState is the synchronization baseline handed to spectators and
// resuming participants.
type SessionState struct {
	SessionSummary
	Board       json.RawMessage `json:"board,omitempty"`
	LastEventID int64           `json:"last_event_id"`
}

type RegisterRequest struct {
	PlayerID    string
	DisplayName string
	// LastEventID lets a resuming participant receive the opponent events it
	// missed while disconnected.
	LastEventID int64
}

type ResumeState struct {
	SessionState
	Role              Role      `json:"role"`
	Opponent          PlayerRef `json:"opponent"`
	OpponentConnected bool      `json:"opponent_connected"`
}

type RegisterResult struct {
	Status      string       `json:"status"`
	PlayerID    string       `json:"player_id"`
	DisplayName string       `json:"display_name"`
	PlayerState Status       `json:"player_status"`
	Ranked      bool         `json:"ranked"`
	Session     *ResumeState `json:"session,omitempty"`
}

const (
	RegisterCreated = "created"
	RegisterResumed = "resumed"
)

type AcceptResult struct {
	ChallengeID  string    `json:"challenge_id"`
	SessionID    string    `json:"session_id"`
	Role         Role      `json:"role"`
	Opponent     PlayerRef `json:"opponent"`
	HintsEnabled bool      `json:"hints_enabled"`
}

type RelayResult struct {
	EventID int64               `json:"event_id"`
	Kind    EventKind           `json:"kind"`
	Match   *rating.MatchResult `json:"match,omitempty"`
}

type Stats struct {
	Players      int `json:"players"`
	Lobby        int `json:"lobby"`
	Sessions     int `json:"sessions"`
	Challenges   int `json:"challenges"`
	GracePending int `json:"grace_pending"`
}

type SweepReport struct {
	IdleClosed       int `json:"idle_closed"`
	SessionsTornDown int `json:"sessions_torn_down"`
	PlayersReaped    int `json:"players_reaped"`
}
