// internal/identity/token.go
//
// Bearer tokens for the motmystere server.
// Responsibilities:
//   - Issue short-lived HS256 JWTs for a user and a purpose
//     ("content" for the educator interface, "play" for players).
//   - Verify tokens for an expected purpose.
//
// Notes:
//   - Each purpose signs with its own key, derived from JWT_SECRET with
//     HKDF-SHA256, so a play token can never open the educator routes.
//   - Password login is out of scope; tokens are minted by the CLI or by
//     an upstream identity provider sharing the secret.

package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// Token purposes.
const (
	PurposeContent = "content"
	PurposePlay    = "play"
)

var (
	ErrEmptyUser    = errors.New("user id is required")
	ErrEmptyPurpose = errors.New("purpose is required")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carried by every token. Subject is the user id.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. A non-positive ttl defaults to 15 minutes.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// key derives the signing key for purpose.
func (i *Issuer) key(purpose string) ([]byte, error) {
	k := make([]byte, 32)
	r := hkdf.New(sha256.New, i.secret, nil, []byte("motmystere/jwt/"+purpose))
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, err
	}
	return k, nil
}

// Token issues a token for userID scoped to purpose.
func (i *Issuer) Token(userID, purpose string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrEmptyUser
	}
	if purpose == "" {
		return "", time.Time{}, ErrEmptyPurpose
	}
	k, err := i.key(purpose)
	if err != nil {
		return "", time.Time{}, err
	}
	now := i.now()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(k)
	return ss, exp, err
}

// Verify parses tok and returns the user id when it is valid for purpose.
func (i *Issuer) Verify(tok, purpose string) (string, error) {
	k, err := i.key(purpose)
	if err != nil {
		return "", err
	}
	var c Claims
	parsed, err := jwt.ParseWithClaims(tok, &c, func(t *jwt.Token) (interface{}, error) {
		return k, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Purpose != purpose || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
