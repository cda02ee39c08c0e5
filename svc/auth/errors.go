package auth

import "errors"

var (
	ErrInvalidState       = errors.New("oauth state is missing or does not match")
	ErrInvalidCode        = errors.New("oauth authorization code was rejected")
	ErrAccessDenied       = errors.New("twitch authorization was denied")
	ErrProfileUnavailable = errors.New("twitch profile could not be loaded")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrSessionExpired     = errors.New("session expired")
)
