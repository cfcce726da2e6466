package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/thereayou/studybud/internal/cache"
	"github.com/thereayou/studybud/internal/logger"
	"github.com/thereayou/studybud/internal/models"
	"github.com/thereayou/studybud/pkg/auth"
)

const (
	UserIDKey      = "userID"
	UserKey        = "user"
	ClaimsKey      = "tokenClaims"
	RawTokenKey    = "rawToken"
	msgUnauthorize = "Authentication credentials were not provided."
)

// UserLoader resolves the subject of a session token.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Sessions resolves the caller from a bearer token or the session cookie.
type Sessions struct {
	jwt        *auth.JWTManager
	blacklist  cache.Blacklist
	users      UserLoader
	cookieName string
}

func NewSessions(jwtManager *auth.JWTManager, blacklist cache.Blacklist, users UserLoader, cookieName string) *Sessions {
	return &Sessions{jwt: jwtManager, blacklist: blacklist, users: users, cookieName: cookieName}
}

// Identify attaches the signed-in user to the context when the request
// carries a valid, unrevoked token for an active account. Requests without
// one continue anonymously.
func (s *Sessions) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.tokenFrom(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := s.jwt.Verify(token)
		if err != nil {
			c.Next()
			return
		}
		revoked, err := s.blacklist.Revoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Error().Err(err).Msg("Token blacklist lookup failed")
			c.Next()
			return
		}
		if revoked {
			c.Next()
			return
		}

		userID, err := auth.UserID(claims)
		if err != nil {
			c.Next()
			return
		}
		user, err := s.users.GetUser(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			c.Next()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Set(ClaimsKey, claims)
		c.Set(RawTokenKey, token)
		c.Next()
	}
}

func (s *Sessions) tokenFrom(c *gin.Context) string {
	if token, err := auth.ExtractTokenFromHeader(c.Request); err == nil {
		return token
	}
	if cookie, err := c.Cookie(s.cookieName); err == nil {
		return cookie
	}
	return ""
}

// Revoke blacklists the token of the current request until it expires.
func (s *Sessions) Revoke(c *gin.Context) error {
	claims, ok := TokenClaims(c)
	if !ok {
		return nil
	}
	return s.blacklist.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
}

// Issue signs a new session token for user.
func (s *Sessions) Issue(user *models.User) (string, error) {
	return s.jwt.Generate(user.ID)
}

// CookieName is where browser sessions keep their token.
func (s *Sessions) CookieName() string {
	return s.cookieName
}

// TokenTTL is the lifetime of issued tokens.
func (s *Sessions) TokenTTL() int {
	return int(s.jwt.Duration().Seconds())
}

// RequireAuth rejects anonymous API requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorize})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff rejects anonymous callers with 401 and non-staff with 403.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthorize})
			c.Abort()
			return
		}
		if !user.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action."})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user Identify attached, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func TokenClaims(c *gin.Context) (*jwt.RegisteredClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.RegisteredClaims)
	return claims, ok
}
