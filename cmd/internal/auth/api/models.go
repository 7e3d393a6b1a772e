package authapi

import (
	"net/mail"
	"strings"

	"warden/cmd/identity"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User identity.Public `json:"user"`
}

type sessionResponse struct {
	Message   string          `json:"message"`
	User      identity.Public `json:"user"`
	SessionID string          `json:"session_id"`
}

type csrfResponse struct {
	Message   string `json:"message"`
	CSRFToken string `json:"csrf_token"`
}

const (
	minNameLen = 2
	maxNameLen = 64
	maxEmail   = 254
	minPass    = 8
	maxPass    = 72 // bcrypt input limit
)

func validateRegister(req registerRequest) []fieldError {
	var errs []fieldError
	name := strings.TrimSpace(req.Name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		errs = append(errs, fieldError{Field: "name", Message: "name must be 2-64 characters"})
	}
	errs = append(errs, validateEmail(req.Email)...)
	if len(req.Password) < minPass || len(req.Password) > maxPass {
		errs = append(errs, fieldError{Field: "password", Message: "password must be 8-72 characters"})
	}
	return errs
}

func validateLogin(req loginRequest) []fieldError {
	var errs []fieldError
	errs = append(errs, validateEmail(req.Email)...)
	if req.Password == "" {
		errs = append(errs, fieldError{Field: "password", Message: "password is required"})
	}
	return errs
}

func validateVerifyOTP(req verifyOTPRequest) []fieldError {
	var errs []fieldError
	errs = append(errs, validateEmail(req.Email)...)
	if len(req.OTP) != 6 {
		errs = append(errs, fieldError{Field: "otp", Message: "otp must be a 6-digit code"})
	}
	return errs
}

func validateEmail(email string) []fieldError {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmail {
		return []fieldError{{Field: "email", Message: "a valid email is required"}}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return []fieldError{{Field: "email", Message: "a valid email is required"}}
	}
	return nil
}
