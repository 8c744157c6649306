package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints and verifies self-contained session tokens. There is no
// refresh flow and no revocation list; a token is valid until it expires.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	User Profile `json:"user"`
	jwt.RegisteredClaims
}

// Sign issues a bearer token embedding the user profile.
func (s *Signer) Sign(profile *Profile) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		User: *profile,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a bearer token's signature and expiry and returns the
// embedded profile.
func (s *Signer) Parse(tokenString string) (*Profile, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrSessionInvalid
	}
	return &claims.User, nil
}
