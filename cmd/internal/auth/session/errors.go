package session

import "errors"

var (
	// ErrInvalidToken is the single failure outcome for any token that does
	// not verify against both its signature and current server state: bad
	// signature, expired, malformed, wrong kind, superseded session, or a
	// refresh token that is not the stored one. Callers must not be able to
	// distinguish the reasons.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
