package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"festpass/internal/attendee"
)

const operatorKey = "operator"

// Revoker tracks sessions invalidated by an explicit logout.
type Revoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) bool
}

// RedisRevoker stores revoked session ids with a TTL matching the token
// expiry, so entries clean themselves up.
type RedisRevoker struct {
	Client *redis.Client
}

func (r RedisRevoker) key(jti string) string { return "festpass:revoked:" + jti }

func (r RedisRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r RedisRevoker) IsRevoked(ctx context.Context, jti string) bool {
	n, err := r.Client.Exists(ctx, r.key(jti)).Result()
	return err == nil && n > 0
}

// OperatorAuth enforces bearer JWT tokens signed with HS256 and places the
// operator identity in the request context. revoker may be nil.
func OperatorAuth(signingKey, issuer string, revoker Revoker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if revoker != nil && revoker.IsRevoked(c.Request.Context(), claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session revoked"})
			return
		}
		c.Set("claims", claims)
		c.Set(operatorKey, claims.Organizer())
		c.Next()
	}
}

// RequireAdmin gates management endpoints behind the admin flag.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		op := CurrentOperator(c)
		if !op.IsAdmin && !op.IsGod {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentOperator returns the authenticated operator for this request.
func CurrentOperator(c *gin.Context) (op attendee.Organizer) {
	if v, ok := c.Get(operatorKey); ok {
		if o, ok := v.(attendee.Organizer); ok {
			return o
		}
	}
	return
}
