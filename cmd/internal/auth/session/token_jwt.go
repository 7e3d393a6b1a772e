package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two credentials the codec mints. A token of one
// kind never verifies as the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the signed payload carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	Kind      string `json:"typ"`
}

// TokenClaims is the verified identity envelope returned to callers.
type TokenClaims struct {
	UserID    string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec creates and verifies signed expiring bearer tokens. It is stateless
// beyond the signing secret: trust in a verified token is re-derived against
// server state by the Service, not here.
type Codec struct {
	issuer string
	secret []byte
}

// NewCodec constructs a Codec from config.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.JWTSecret) < MinJWTSecretBytes || cfg.Issuer == "" {
		return nil, ErrConfig
	}
	return &Codec{issuer: cfg.Issuer, secret: []byte(cfg.JWTSecret)}, nil
}

// Issue signs a token of the given kind carrying the subject and session id.
func (c *Codec) Issue(userID, sessionID string, kind Kind, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		SessionID: sessionID,
		Kind:      string(kind),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, expiry, issuer, and kind together. Every failure
// collapses to ErrInvalidToken so callers cannot build an oracle out of the
// reasons.
func (c *Codec) Verify(tokenString string, kind Kind, now time.Time) (TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !token.Valid {
		return TokenClaims{}, ErrInvalidToken
	}
	if claims.Kind != string(kind) || claims.Subject == "" || claims.SessionID == "" {
		return TokenClaims{}, ErrInvalidToken
	}

	out := TokenClaims{
		UserID:    claims.Subject,
		SessionID: claims.SessionID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
