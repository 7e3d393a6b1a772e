package account

import "errors"

// Flow outcomes. The HTTP boundary maps these to status codes exactly once.
var (
	// ErrRateLimited means the per-(client, email) cooldown is active.
	ErrRateLimited = errors.New("too many attempts")

	// ErrEmailTaken means a durable user already claims the email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email, wrong password, and wrong
	// OTP alike; the message is deliberately generic to avoid enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrVerifyTokenInvalid means the verification token is unknown,
	// already consumed, or expired.
	ErrVerifyTokenInvalid = errors.New("verification token expired or invalid")

	// ErrOTPExpired means no pending code exists for the email (never
	// issued, expired, or already consumed).
	ErrOTPExpired = errors.New("otp expired")

	// ErrMailSend means the outbound email could not be delivered.
	ErrMailSend = errors.New("email delivery failed")
)
