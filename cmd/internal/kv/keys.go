package kv

import "fmt"

// Key builders for every entity warden stores. Key shape is a single
// reviewable contract; nothing else in the codebase concatenates key strings.

// SessionKey stores the JSON session record for one login instance.
func SessionKey(sessionID string) string {
	return "session:" + sessionID
}

// ActiveSessionKey points a user at their single current session id.
func ActiveSessionKey(userID string) string {
	return "active_session:" + userID
}

// RefreshTokenKey stores the one live refresh token for a user.
func RefreshTokenKey(userID string) string {
	return "refresh_token:" + userID
}

// CSRFKey stores the double-submit CSRF token for a user.
func CSRFKey(userID string) string {
	return "csrf:" + userID
}

// OTPKey stores the pending one-time login code for an email address.
func OTPKey(email string) string {
	return "otp:" + email
}

// VerifyKey stores a staged registration payload under its one-time token.
func VerifyKey(token string) string {
	return "verify:" + token
}

// UserCacheKey stores the serialized public user projection.
func UserCacheKey(userID string) string {
	return "user:" + userID
}

// RateLimitKey marks a (scope, client, email) cooldown.
// Scope is "register" or "login".
func RateLimitKey(scope, addr, email string) string {
	return fmt.Sprintf("%s-rate-limit:%s:%s", scope, addr, email)
}
