package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller-authenticated user id, set by the
	// gateway in front of this service.
	HeaderUserID = "X-User-ID"

	userIDKey = "userID"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._@:\-]{1,64}$`)

// Identity requires a well-formed X-User-ID header and stores it in the
// Gin context. Requests without one get 401.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if !userIDPattern.MatchString(uid) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "missing or invalid " + HeaderUserID,
			})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID returns the id stored by Identity, or "".
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
