package account

import "fmt"

// Minimal inline bodies; full branded templates live with the mail
// infrastructure, not in this core.

const (
	verifySubject = "Verify Your Email for Account Registration"
	otpSubject    = "Your OTP for verification"
)

func verifyEmailHTML(name, link string) string {
	return fmt.Sprintf(
		`<p>Hi %s,</p><p>Confirm your registration by opening the link below. It expires in 5 minutes.</p><p><a href="%s">%s</a></p>`,
		name, link, link,
	)
}

func otpEmailHTML(code string) string {
	return fmt.Sprintf(
		`<p>Your one-time login code is:</p><p><strong>%s</strong></p><p>It expires in 5 minutes.</p>`,
		code,
	)
}
