package public

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrSessionNotFound = errors.New("session_not_found")
	ErrPlayerNotFound  = errors.New("player_not_found")
)
