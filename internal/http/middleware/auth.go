// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The token comes from the
// Authorization bearer header or, failing that, the session cookie. A missing
// or rejected token leaves the request anonymous; handlers decide whether an
// operation needs a signed-in caller.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/auth"
	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/sysutil"
)

const (
	ctxKeySession = "session"
	ctxKeyUserID  = "userID"
)

// SessionResolver turns a raw session token into the caller's identity.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*domain.Session, error)
}

// Authenticate stores the resolved *domain.Session and its user id in the
// Gin context. cookieName may be empty to accept header tokens only.
func Authenticate(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cookie string
		if cookieName != "" {
			cookie, _ = c.Cookie(cookieName)
		}
		tok := sysutil.FirstNonEmpty(auth.BearerToken(c.GetHeader("Authorization")), cookie)
		if tok == "" || resolver == nil {
			c.Next()
			return
		}
		sess, err := resolver.CurrentUser(c.Request.Context(), tok)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("session token rejected")
			c.Next()
			return
		}
		c.Set(ctxKeySession, sess)
		c.Set(ctxKeyUserID, sess.UserID)
		c.Next()
	}
}

// SessionFrom returns the caller's session, or nil for anonymous requests.
func SessionFrom(c *gin.Context) *domain.Session {
	if v, ok := c.Get(ctxKeySession); ok {
		if s, ok := v.(*domain.Session); ok {
			return s
		}
	}
	return nil
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !SessionFrom(c).Authenticated() {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": asString(rid),
				"code":       "unauthorized",
				"message":    "sign in required",
			})
			return
		}
		c.Next()
	}
}

// userIDFromCtx returns the authenticated user id, or "" when anonymous.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
