package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"authsvc/internal/models"
)

const (
	// SessionCookie carries the signed session credential.
	SessionCookie = "token"
	// ContextUserKey is where RequireSession stores the authenticated *models.User.
	ContextUserKey = "user"
)

// SessionAuthenticator resolves a session credential to its user.
type SessionAuthenticator interface {
	CheckAuth(ctx context.Context, token string) (*models.User, error)
}

// RequireSession reads the session cookie and aborts with the JSON envelope when
// the credential is missing, invalid or points at a user that no longer exists.
func RequireSession(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// preflight пропускаем
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, _ := c.Cookie(SessionCookie)
		user, err := auth.CheckAuth(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user RequireSession put into the context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
