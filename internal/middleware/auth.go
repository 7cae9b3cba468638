package middleware

import (
	"context"
	"strings"

	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/session"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/response"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session_token"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
}

func NewAuthMiddleware(sessions SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.Error(c, apperror.ErrUnauthorized)
			return
		}

		s, err := m.sessions.Resolve(c.Request.Context(), tokenString)
		if err != nil {
			// a store outage surfaces as 500 rather than logging everyone out
			response.Error(c, err)
			return
		}

		response.SetActor(c, policy.Actor{UserID: s.UserID, Role: s.Role}, tokenString)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid session is presented and lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if s, err := m.sessions.Resolve(c.Request.Context(), tokenString); err == nil {
				response.SetActor(c, policy.Actor{UserID: s.UserID, Role: s.Role}, tokenString)
			}
		}
		c.Next()
	}
}

// RequirePermission rejects callers whose role may never perform action. Must run after RequireAuth.
func RequirePermission(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := response.GetActor(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := policy.Authorize(actor, action); err != nil {
			response.Error(c, err)
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	// Fallback to query parameter "token" (useful for WebSockets)
	return c.Query("token")
}
