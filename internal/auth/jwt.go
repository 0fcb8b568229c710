package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"festpass/internal/attendee"
)

// Claims is the operator session payload. The capability flags ride in the
// token so scan clients never need a second lookup.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	IsGod   bool   `json:"isGod"`
	jwt.RegisteredClaims
}

// Organizer converts claims into the identity the ledger records.
func (c Claims) Organizer() attendee.Organizer {
	return attendee.Organizer{Name: c.Name, Email: c.Email, IsAdmin: c.IsAdmin, IsGod: c.IsGod}
}

// Session is an issued operator token plus its revocation handle.
type Session struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Issue signs an operator session token.
func Issue(org attendee.Organizer, issuer, key string, ttl time.Duration) (Session, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Name:    org.Name,
		Email:   org.Email,
		IsAdmin: org.IsAdmin,
		IsGod:   org.IsGod,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   org.Email,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ID: claims.ID, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
