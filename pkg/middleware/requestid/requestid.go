package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
)

// Middleware tags every request with an id so log lines from one call can be
// correlated. A client-supplied X-Request-ID is kept; otherwise one is
// generated and echoed back in the response header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerKey)
		if id == "" {
			id = generateID()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(headerKey, id)

		c.Next()
	}
}

// Value returns the request id for the current request, empty when the
// middleware did not run.
func Value(c *gin.Context) string {
	v, exists := c.Get(contextKey)
	if !exists {
		return ""
	}
	id, ok := v.(string)
	if !ok {
		return ""
	}
	return id
}

func generateID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// entropy exhaustion is effectively unreachable, but a timestamped
		// id still beats an empty one
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
