// Package authapi wires warden's auth flows to HTTP: cookie transport, CSRF
// enforcement, request authentication, and the one place flow errors are
// mapped to status codes.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/account"
	"warden/cmd/internal/auth/csrf"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/kv"
)

// Handler exposes the auth endpoints.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	store    kv.Store
	sessions *session.Service
	csrf     *csrf.Guard
	accounts *account.Service
}

// NewHandler constructs the HTTP boundary over fully built services.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, store kv.Store, sessions *session.Service, guard *csrf.Guard, accounts *account.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil || store == nil || sessions == nil || guard == nil || accounts == nil {
		return nil, errors.New("authapi: missing dependency")
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		users:    users,
		store:    store,
		sessions: sessions,
		csrf:     guard,
		accounts: accounts,
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /api/v1/register", h.handleRegister)
	mux.HandleFunc("POST /api/v1/verify/{token}", h.handleVerifyEmail)
	mux.HandleFunc("POST /api/v1/login", h.handleLogin)
	mux.HandleFunc("POST /api/v1/verify", h.handleVerifyOTP)
	mux.HandleFunc("POST /api/v1/refresh", h.handleRefresh)
	mux.HandleFunc("GET /api/v1/me", h.handleMe)
	mux.HandleFunc("POST /api/v1/logout", h.handleLogout)
	mux.HandleFunc("POST /api/v1/refresh-csrf", h.handleRefreshCSRF)
	mux.HandleFunc("GET /api/v1/admin", h.handleAdmin)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := validateRegister(req); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	addr := clientIP(r, h.cfg.TrustProxy)
	_, err := h.accounts.StageRegistration(r.Context(), addr, strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many registration attempts, please try again later")
		case errors.Is(err, account.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "user already exists")
		case errors.Is(err, account.ErrMailSend):
			writeError(w, http.StatusBadGateway, "mail_send_failed", "could not send verification email")
		default:
			h.log.Error("auth.register.fail", "err", err)
			writeStoreUnavailable(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "a verification email has been sent, please verify within 5 minutes to complete registration",
	})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PathValue("token"))
	if token == "" {
		writeValidationError(w, []fieldError{{Field: "token", Message: "verification token is required"}})
		return
	}

	user, err := h.accounts.Confirm(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrVerifyTokenInvalid):
			writeError(w, http.StatusNotFound, "token_invalid", "verification link has expired or the token is invalid")
		case errors.Is(err, account.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "user already exists")
		default:
			h.log.Error("auth.verify_email.fail", "err", err)
			writeStoreUnavailable(w)
		}
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{User: user.PublicView()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := validateLogin(req); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	addr := clientIP(r, h.cfg.TrustProxy)
	err := h.accounts.StartLogin(r.Context(), addr, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts, please try again later")
		case errors.Is(err, account.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "auth_failed", "invalid email or password")
		case errors.Is(err, account.ErrMailSend):
			writeError(w, http.StatusBadGateway, "mail_send_failed", "could not send the one-time code")
		default:
			h.log.Error("auth.login.fail", "err", err)
			writeStoreUnavailable(w)
		}
		return
	}

	// OTP-pending state: no session exists yet.
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "a one-time code has been sent to your email, please verify within 5 minutes to complete login",
	})
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := validateVerifyOTP(req); len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	user, bundle, err := h.accounts.CompleteLogin(r.Context(), strings.TrimSpace(req.Email), req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrOTPExpired):
			writeError(w, http.StatusUnauthorized, "otp_expired", "the one-time code has expired")
		case errors.Is(err, account.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "auth_failed", "invalid one-time code")
		default:
			h.log.Error("auth.verify_otp.fail", "err", err)
			writeStoreUnavailable(w)
		}
		return
	}

	h.setSessionCookies(w, bundle)
	writeJSON(w, http.StatusOK, sessionResponse{
		Message:   "welcome back, " + user.Name + "! you have been logged in successfully",
		User:      user.PublicView(),
		SessionID: bundle.SessionID,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := cookieValue(r, RefreshCookieName)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "no refresh token provided")
		return
	}

	access, exp, err := h.sessions.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidToken) {
			h.clearSessionCookies(w)
			writeError(w, http.StatusUnauthorized, "auth_failed", "invalid refresh token")
			return
		}
		h.log.Error("auth.refresh.fail", "err", err)
		writeStoreUnavailable(w)
		return
	}

	h.setAccessCookie(w, access, exp)
	writeJSON(w, http.StatusOK, messageResponse{Message: "access token refreshed successfully"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	if !h.requireCSRF(w, r, user.ID) {
		return
	}

	ctx := r.Context()
	if err := h.sessions.Revoke(ctx, user.ID); err != nil {
		h.log.Error("auth.logout.fail", "err", err)
		writeStoreUnavailable(w)
		return
	}
	if err := h.store.Delete(ctx, kv.UserCacheKey(user.ID)); err != nil {
		h.log.Error("auth.logout.cache.fail", "err", err)
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "you have been logged out successfully"})
}

func (h *Handler) handleRefreshCSRF(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	token, err := h.csrf.Rotate(r.Context(), user.ID)
	if err != nil {
		h.log.Error("auth.refresh_csrf.fail", "err", err)
		writeStoreUnavailable(w)
		return
	}

	h.setCSRFCookie(w, token)
	writeJSON(w, http.StatusOK, csrfResponse{
		Message:   "CSRF token refreshed successfully",
		CSRFToken: token,
	})
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.requireAuth(w, r)
	if !ok {
		return
	}
	if user.Role != identity.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "only admins can access this route")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "welcome to the admin route, you have admin access"})
}
