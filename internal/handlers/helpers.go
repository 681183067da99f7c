package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authsvc/internal/middleware"
	"authsvc/internal/models"
)

// bind decodes the JSON body; a malformed body is a 400 with the usual envelope.
func (h *AuthHandler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.DebugContext(c.Request.Context(), "bad request body", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Response{Success: false, Message: "Invalid request body"})
		return false
	}
	return true
}

func (h *AuthHandler) fail(c *gin.Context, err error) {
	if middleware.StatusFor(err) >= http.StatusInternalServerError {
		h.log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "err", err)
	}
	middleware.AbortWithError(c, err)
}

func setSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl/time.Second), "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secure, true)
}
