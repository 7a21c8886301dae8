package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderNick carries the caller's chat nick on HTTP requests.
const HeaderNick = "X-Nick"

const (
	nickKey    = "nick"
	maxNickLen = 64
)

// Identity stores a well-formed X-Nick header value in the Gin context under
// "nick". Nicks are not authenticated; they only attribute submissions and key
// rate-limit buckets. Malformed values are ignored.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if n := strings.TrimSpace(c.GetHeader(HeaderNick)); validNick(n) {
			c.Set(nickKey, n)
		}
		c.Next()
	}
}

// NickFrom returns the nick stored by Identity, or "".
func NickFrom(c *gin.Context) string {
	if v, ok := c.Get(nickKey); ok {
		return asString(v)
	}
	return ""
}

// SetNick records nick for downstream middleware, e.g. when a handler learns
// it from the request body.
func SetNick(c *gin.Context, nick string) {
	if validNick(nick) {
		c.Set(nickKey, nick)
	}
}

func validNick(n string) bool {
	return n != "" && len(n) <= maxNickLen && !strings.ContainsAny(n, " \t\r\n")
}
