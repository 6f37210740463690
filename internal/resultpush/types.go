package resultpush

import (
	"time"

	"matchhub/internal/coordinator"
	"matchhub/internal/rating"
)

const (
	EventMatchStarted   = "match_started"
	EventMatchCompleted = "match_completed"
	EventMatchAbandoned = "match_abandoned"
)

// PushTarget is one outbound destination. Scope is "all" or
// "player:<player or account id>".
type PushTarget struct {
	Platform       string   `json:"platform" yaml:"platform"`
	Endpoint       string   `json:"endpoint" yaml:"endpoint"`
	Secret         string   `json:"secret" yaml:"secret"`
	Scope          string   `json:"scope" yaml:"scope"`
	EventAllowlist []string `json:"event_allowlist" yaml:"event_allowlist"`
	Enabled        bool     `json:"enabled" yaml:"enabled"`
}

type Config struct {
	Enabled             bool
	ConfigPath          string
	ConfigReload        time.Duration
	Targets             []PushTarget
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

// MatchEvent is the session lifecycle change being announced.
type MatchEvent struct {
	EventType string                `json:"event"`
	SessionID string                `json:"session_id"`
	Reason    string                `json:"reason,omitempty"`
	Host      coordinator.PlayerRef `json:"host"`
	Guest     coordinator.PlayerRef `json:"guest"`
	Score     coordinator.Score     `json:"score"`
	Result    *rating.MatchResult   `json:"result,omitempty"`
	At        time.Time             `json:"at"`
}

type MessageField struct {
	Name   string
	Value  string
	Inline bool
}

type FormattedMessage struct {
	Title       string
	Content     string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []MessageField
}

type pushJob struct {
	Target    PushTarget
	Event     MatchEvent
	Formatted FormattedMessage
	Attempt   int
}

func (j pushJob) key() string {
	return targetKey(j.Target)
}

func targetKey(t PushTarget) string {
	return t.Platform + "|" + t.Endpoint + "|" + t.Scope
}
