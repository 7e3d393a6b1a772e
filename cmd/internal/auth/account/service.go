package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/kv"
)

const (
	scopeRegister = "register"
	scopeLogin    = "login"
)

// pendingRegistration is the staged, unconfirmed account stored under
// kv.VerifyKey. The password is already hashed when staged.
type pendingRegistration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// Service drives the registration and login flows.
type Service struct {
	cfg      Config
	users    identity.Store
	store    kv.Store
	sessions *session.Service
	limiter  *RateLimiter
	mailer   Mailer
	log      *slog.Logger
}

// NewService constructs the account flows.
func NewService(cfg Config, log *slog.Logger, users identity.Store, store kv.Store, sessions *session.Service, mailer Mailer) *Service {
	if log == nil {
		log = slog.Default()
	}
	if mailer == nil {
		mailer = NoopMailer{}
	}
	return &Service{
		cfg:      cfg,
		users:    users,
		store:    store,
		sessions: sessions,
		limiter:  NewRateLimiter(store, cfg.RateLimitTTL),
		mailer:   mailer,
		log:      log,
	}
}

// StageRegistration validates that the email is unclaimed, hashes the
// password, stores the pending record under a one-time token, and emails a
// verification link. It never touches session state. The returned token is
// only delivered via email in production; tests consume it directly.
func (s *Service) StageRegistration(ctx context.Context, clientAddr, name, email, password string) (string, error) {
	emailNorm := identity.NormalizeEmail(email)

	allowed, err := s.limiter.Allow(ctx, scopeRegister, clientAddr, emailNorm)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", ErrRateLimited
	}

	exists, err := s.users.ExistsByEmail(ctx, emailNorm)
	if err != nil {
		return "", fmt.Errorf("account: check email: %w", err)
	}
	if exists {
		return "", ErrEmailTaken
	}

	hash, err := identity.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("account: hash password: %w", err)
	}

	token, err := newHexToken()
	if err != nil {
		return "", err
	}

	pending, err := json.Marshal(pendingRegistration{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return "", fmt.Errorf("account: marshal pending: %w", err)
	}
	if err := s.store.Set(ctx, kv.VerifyKey(token), string(pending), s.cfg.PendingTTL); err != nil {
		return "", fmt.Errorf("account: stage registration: %w", err)
	}

	link := s.cfg.VerifyURLBase + "/verify/" + token
	if err := s.mailer.Send(ctx, email, verifySubject, verifyEmailHTML(name, link)); err != nil {
		s.log.Error("account.register.mail.fail", "err", err)
		return "", ErrMailSend
	}

	if err := s.limiter.Mark(ctx, scopeRegister, clientAddr, emailNorm); err != nil {
		return "", err
	}

	s.log.Info("account.register.staged", "email", emailNorm)
	return token, nil
}

// Confirm promotes a staged registration to a durable user.
//
// The pending record is deleted immediately on lookup, so the token is
// single-use even when promotion fails afterwards. Email uniqueness is
// re-checked at promotion time to close the race where two concurrent
// registrations for the same address both passed the staging check.
func (s *Service) Confirm(ctx context.Context, token string) (identity.User, error) {
	raw, err := s.store.Get(ctx, kv.VerifyKey(token))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return identity.User{}, ErrVerifyTokenInvalid
		}
		return identity.User{}, fmt.Errorf("account: load pending: %w", err)
	}
	if err := s.store.Delete(ctx, kv.VerifyKey(token)); err != nil {
		return identity.User{}, fmt.Errorf("account: consume token: %w", err)
	}

	var pending pendingRegistration
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return identity.User{}, ErrVerifyTokenInvalid
	}

	exists, err := s.users.ExistsByEmail(ctx, pending.Email)
	if err != nil {
		return identity.User{}, fmt.Errorf("account: recheck email: %w", err)
	}
	if exists {
		return identity.User{}, ErrEmailTaken
	}

	user, err := s.users.Create(ctx, identity.CreateUserInput{
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
	})
	if err != nil {
		if identity.IsConflict(err) {
			return identity.User{}, ErrEmailTaken
		}
		return identity.User{}, fmt.Errorf("account: create user: %w", err)
	}

	s.log.Info("account.register.confirmed", "user_id", user.ID)
	return user, nil
}

// StartLogin verifies the password and emails a one-time code. No session
// state is touched; the OTP is the gate in front of session establishment.
func (s *Service) StartLogin(ctx context.Context, clientAddr, email, password string) error {
	emailNorm := identity.NormalizeEmail(email)

	allowed, err := s.limiter.Allow(ctx, scopeLogin, clientAddr, emailNorm)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailNorm)
	if err != nil {
		if identity.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("account: lookup user: %w", err)
	}
	if !identity.VerifyPassword(password, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	code, err := newOTPCode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, kv.OTPKey(emailNorm), code, s.cfg.OTPTTL); err != nil {
		return fmt.Errorf("account: store otp: %w", err)
	}

	if err := s.mailer.Send(ctx, user.Email, otpSubject, otpEmailHTML(code)); err != nil {
		s.log.Error("account.login.mail.fail", "err", err)
		return ErrMailSend
	}

	if err := s.limiter.Mark(ctx, scopeLogin, clientAddr, emailNorm); err != nil {
		return err
	}

	s.log.Info("account.login.otp_sent", "email", emailNorm)
	return nil
}

// CompleteLogin consumes the one-time code and, on an exact match,
// establishes a session.
//
// The stored code is deleted on the first read attempt regardless of the
// match outcome, bounding brute force to one guess per issuance. A correct
// code racing itself therefore succeeds once; the loser sees ErrOTPExpired.
func (s *Service) CompleteLogin(ctx context.Context, email, code string) (identity.User, session.Bundle, error) {
	emailNorm := identity.NormalizeEmail(email)

	stored, err := s.store.Get(ctx, kv.OTPKey(emailNorm))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return identity.User{}, session.Bundle{}, ErrOTPExpired
		}
		return identity.User{}, session.Bundle{}, fmt.Errorf("account: load otp: %w", err)
	}
	if err := s.store.Delete(ctx, kv.OTPKey(emailNorm)); err != nil {
		return identity.User{}, session.Bundle{}, fmt.Errorf("account: consume otp: %w", err)
	}

	if stored != code {
		return identity.User{}, session.Bundle{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailNorm)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, session.Bundle{}, ErrInvalidCredentials
		}
		return identity.User{}, session.Bundle{}, fmt.Errorf("account: lookup user: %w", err)
	}

	bundle, err := s.sessions.Establish(ctx, user.ID)
	if err != nil {
		return identity.User{}, session.Bundle{}, err
	}

	s.log.Info("account.login.success", "user_id", user.ID, "session_id", bundle.SessionID)
	return user, bundle, nil
}

func newHexToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("account: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// newOTPCode returns a 6-digit numeric code in [100000, 999999].
func newOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("account: generate otp: %w", err)
	}
	return (n.Add(n, big.NewInt(100000))).String(), nil
}
