package coordinator

import "errors"

var (
	ErrNotInitialized    = errors.New("not_initialized")
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrIdentityMismatch  = errors.New("identity_mismatch")
	ErrPlayerNotFound    = errors.New("player_not_found")
	ErrTargetUnavailable = errors.New("target_unavailable")
	ErrNotInLobby        = errors.New("not_in_lobby")
	ErrUnknownChallenge  = errors.New("unknown_challenge")
	ErrNotYours          = errors.New("not_yours")
	ErrGameNotFound      = errors.New("game_not_found")
	ErrGameNotActive     = errors.New("game_not_active")
	ErrNotInSession      = errors.New("not_in_session")
	ErrAlreadyInGame     = errors.New("already_in_game")
)

var knownErrors = []error{
	ErrNotInitialized,
	ErrInvalidRequest,
	ErrIdentityMismatch,
	ErrPlayerNotFound,
	ErrTargetUnavailable,
	ErrNotInLobby,
	ErrUnknownChallenge,
	ErrNotYours,
	ErrGameNotFound,
	ErrGameNotActive,
	ErrNotInSession,
	ErrAlreadyInGame,
}

const CodeInternal = "internal_error"

// ErrorCode maps an error to the code carried in a failed acknowledgement.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return CodeInternal
}

// IsDomainError reports whether err belongs to the coordinator taxonomy, as
// opposed to an unexpected failure that should be logged.
func IsDomainError(err error) bool {
	return err != nil && ErrorCode(err) != CodeInternal
}
