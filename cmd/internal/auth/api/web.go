package authapi

import (
	"net"
	"net/http"
	"strings"
	"time"

	"warden/cmd/internal/auth/session"
)

// setSessionCookies installs the full cookie triple after a completed login:
// accessToken and refreshToken are http-only; csrfToken is readable because
// the client must echo it in a header (double-submit).
func (h *Handler) setSessionCookies(w http.ResponseWriter, b session.Bundle) {
	h.setCookie(w, AccessCookieName, b.AccessToken, b.AccessExp, true)
	h.setCookie(w, RefreshCookieName, b.RefreshToken, b.RefreshExp, true)
	h.setCSRFCookie(w, b.CSRFToken)
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, token string, exp time.Time) {
	h.setCookie(w, AccessCookieName, token, exp, true)
}

func (h *Handler) setCSRFCookie(w http.ResponseWriter, token string) {
	h.setCookie(w, CSRFCookieName, token, time.Now().UTC().Add(h.csrf.TTL()), false)
}

// clearSessionCookies expires the triple; any session, refresh, or CSRF
// failure clears all three so the client re-authenticates from a clean slate
// instead of retrying with half-valid state.
func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	h.expireCookie(w, AccessCookieName, true)
	h.expireCookie(w, RefreshCookieName, true)
	h.expireCookie(w, CSRFCookieName, false)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: httpOnly,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func cookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

// csrfHeaderToken returns the first non-empty CSRF header value.
func csrfHeaderToken(r *http.Request) string {
	for _, name := range csrfHeaderNames {
		if v := strings.TrimSpace(r.Header.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// clientIP extracts the requester address for rate-limit keys. Behind a
// trusted proxy the first X-Forwarded-For hop is used.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
			if i := strings.IndexByte(xff, ','); i >= 0 {
				xff = xff[:i]
			}
			return strings.TrimSpace(xff)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// isSafeMethod reports whether the request cannot mutate state and therefore
// bypasses CSRF verification.
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
