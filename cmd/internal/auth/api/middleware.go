package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"warden/cmd/identity"
	"warden/cmd/internal/auth/csrf"
	"warden/cmd/internal/auth/session"
	"warden/cmd/internal/kv"
)

// requireAuth authenticates a request from the accessToken cookie.
//
// Trust is re-derived against server state on every request: after the
// signature check, the embedded session id must still be the user's active
// session, which rejects superseded or logged-out sessions before the token
// expires. On any auth failure all three cookies are cleared.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (identity.Public, session.TokenClaims, bool) {
	token, ok := cookieValue(r, AccessCookieName)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "please login first")
		return identity.Public{}, session.TokenClaims{}, false
	}

	claims, err := h.sessions.Codec().Verify(token, session.KindAccess, time.Now().UTC())
	if err != nil {
		h.clearSessionCookies(w)
		writeError(w, http.StatusUnauthorized, "not_authenticated", "please login first")
		return identity.Public{}, session.TokenClaims{}, false
	}

	active, err := h.sessions.IsActive(r.Context(), claims.UserID, claims.SessionID)
	if err != nil {
		writeStoreUnavailable(w)
		return identity.Public{}, session.TokenClaims{}, false
	}
	if !active {
		h.clearSessionCookies(w)
		writeError(w, http.StatusUnauthorized, "session_expired", "session expired, you have been logged out from another device")
		return identity.Public{}, session.TokenClaims{}, false
	}

	user, err := h.loadUser(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.clearSessionCookies(w)
			writeError(w, http.StatusNotFound, "not_found", "user not found")
			return identity.Public{}, session.TokenClaims{}, false
		}
		writeStoreUnavailable(w)
		return identity.Public{}, session.TokenClaims{}, false
	}

	return user, claims, true
}

// loadUser serves the public user view through the kv cache. The cache is
// never a source of truth: it is filled from the directory and invalidated
// on logout.
func (h *Handler) loadUser(ctx context.Context, userID string) (identity.Public, error) {
	if raw, err := h.store.Get(ctx, kv.UserCacheKey(userID)); err == nil {
		var cached identity.Public
		if jerr := json.Unmarshal([]byte(raw), &cached); jerr == nil {
			return cached, nil
		}
		// Corrupt cache entry: fall through to the directory.
	} else if !errors.Is(err, kv.ErrNotFound) {
		return identity.Public{}, err
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		return identity.Public{}, err
	}

	pub := user.PublicView()
	if raw, err := json.Marshal(pub); err == nil {
		if err := h.store.Set(ctx, kv.UserCacheKey(userID), string(raw), h.cfg.UserCacheTTL); err != nil {
			h.log.Error("auth.user_cache.fill.fail", "err", err)
		}
	}
	return pub, nil
}

// requireCSRF enforces the double-submit check on mutating requests.
// Safe methods bypass it entirely.
func (h *Handler) requireCSRF(w http.ResponseWriter, r *http.Request, userID string) bool {
	if isSafeMethod(r.Method) {
		return true
	}

	err := h.csrf.Verify(r.Context(), userID, csrfHeaderToken(r))
	switch {
	case err == nil:
		return true
	case errors.Is(err, csrf.ErrMissing):
		writeError(w, http.StatusForbidden, "csrf_token_missing", "CSRF token missing")
	case errors.Is(err, csrf.ErrExpired):
		writeError(w, http.StatusForbidden, "csrf_token_expired", "CSRF token expired, please refresh and try again")
	case errors.Is(err, csrf.ErrMismatch):
		writeError(w, http.StatusForbidden, "csrf_token_invalid", "invalid CSRF token, please refresh this page and try again")
	default:
		h.log.Error("auth.csrf.verify.fail", "err", err)
		writeStoreUnavailable(w)
	}
	return false
}

// writeStoreUnavailable reports a backing-store failure. It is always a 5xx
// and never silently treated as "not authenticated".
func writeStoreUnavailable(w http.ResponseWriter) {
	writeError(w, http.StatusServiceUnavailable, "store_unavailable", "backing store unreachable, please retry")
}
