package credential

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims carries the credential payload inside a signed JWT.
type TokenClaims struct {
	Payload
	jwt.RegisteredClaims
}

// Sign issues an HS256 token over the payload so a scanned credential can be
// re-verified server-side. The embedded Token field is cleared first; the
// signature covers identity fields only.
func Sign(p Payload, secret, issuer string, ttl time.Duration) (string, error) {
	p.Token = ""
	now := time.Now()
	claims := TokenClaims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken validates a signed credential and returns the payload it carries.
func VerifyToken(tokenStr, secret, issuer string) (Payload, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Payload{}, err
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return Payload{}, errors.New("invalid credential token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return Payload{}, errors.New("issuer mismatch")
	}
	return claims.Payload, nil
}
