package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLen is the shortest accepted HMAC signing secret.
const MinSecretLen = 16

// ErrWeakSecret is returned by NewTokenIssuer for short secrets.
var ErrWeakSecret = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLen)

// ErrEmptySubject is returned when issuing a token without a subject.
var ErrEmptySubject = errors.New("token subject must not be empty")

// SubmitterClaims are the JWT claims of a submitter token. The subject is the
// identity recorded as the submitter of every anchor made with the token.
type SubmitterClaims struct {
	jwt.RegisteredClaims
}

// Submitter returns the authenticated submitter identity.
func (c *SubmitterClaims) Submitter() string { return c.Subject }

// TokenIssuer issues and verifies HS256 submitter tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
//
//	secret: HMAC key shared by the server and whoever mints tokens.
//	issuer: the "iss" claim value; tokens with another issuer are rejected.
//	ttl: token lifetime (default: 24 hours).
func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issue creates a signed token for subject.
func (t *TokenIssuer) Issue(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrEmptySubject
	}
	now := time.Now().UTC()
	claims := SubmitterClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a submitter token, returning its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*SubmitterClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&SubmitterClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	claims, ok := token.Claims.(*SubmitterClaims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }
