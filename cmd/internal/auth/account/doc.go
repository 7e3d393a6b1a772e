// Package account implements the flows in front of the session authority:
// staged registration with email verification, and the mandatory two-step
// password + OTP login. Both flows are throttled by an advisory per
// (client, email) cooldown.
package account
