package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// CtxUsernameKey holds the authenticated username in the Gin context.
const CtxUsernameKey = "username"

// accessToken reads the access token from the cookie, falling back to an
// Authorization: Bearer header for non-browser clients.
func accessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentUser returns the username set by Auth.
func CurrentUser(c *gin.Context) string {
	return c.GetString(CtxUsernameKey)
}
