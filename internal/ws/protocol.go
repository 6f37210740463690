package ws

import "encoding/json"

const (
	MsgInit             = "init"
	MsgUpdatePlayerName = "updatePlayerName"
	MsgEnterLobby       = "enterLobby"
	MsgLeaveLobby       = "leaveLobby"
	MsgGetLobbyPlayers  = "getLobbyPlayers"
	MsgSendChallenge    = "sendChallenge"
	MsgAcceptChallenge  = "acceptChallenge"
	MsgDeclineChallenge = "declineChallenge"
	MsgCancelChallenge  = "cancelChallenge"
	MsgGameEvent        = "gameEvent"
	MsgLeaveGame        = "leaveGame"
	MsgJoinSpectator    = "joinSpectator"
	MsgLeaveSpectator   = "leaveSpectator"
	MsgHeartbeat        = "heartbeat"

	TypeAck = "ack"
)

const maxRequestIDLen = 64

type Request struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type Ack struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type Push struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type InitData struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	LastEventID int64  `json:"last_event_id,omitempty"`
}

type NameData struct {
	DisplayName string `json:"display_name"`
}

type ChallengeData struct {
	TargetID     string `json:"target_id"`
	HintsEnabled bool   `json:"hints_enabled"`
}

type ChallengeRef struct {
	ChallengeID string `json:"challenge_id"`
}

type GameEventData struct {
	Payload json.RawMessage `json:"payload"`
}

type SpectateData struct {
	SessionID string `json:"session_id"`
}
