package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderAdminToken carries the moderation credential.
const HeaderAdminToken = "X-Admin-Token"

// AdminToken guards moderation routes with a shared secret. A missing header
// yields 401 and a wrong one 403. With an empty configured token every request
// is refused, so moderation stays closed until ADMIN_TOKEN is set.
func AdminToken(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderAdminToken)
		switch {
		case len(want) == 0:
			abortJSON(c, http.StatusForbidden, "forbidden", "admin access disabled")
		case got == "":
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "admin token required")
		case subtle.ConstantTimeCompare([]byte(got), want) != 1:
			abortJSON(c, http.StatusForbidden, "forbidden", "invalid admin token")
		default:
			c.Next()
		}
	}
}

// abortJSON writes the standard error envelope from middleware, which cannot
// import the handlers package.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
