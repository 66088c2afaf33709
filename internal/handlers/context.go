package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/abak-storefront/internal/logging"
)

// ContextIDHeader carries the browsing-context id in both directions.
const ContextIDHeader = "X-Context-ID"

const maxContextIDLen = 128

// ContextID resolves the browsing context of the request, issuing a fresh
// uuid when the header is absent or unusable, and echoes it back.
func ContextID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ContextIDHeader)
		if id == "" || len(id) > maxContextIDLen {
			id = uuid.NewString()
		}
		c.Set(logging.ContextIDKey, id)
		c.Header(ContextIDHeader, id)
		c.Next()
	}
}

func contextID(c *gin.Context) string {
	return c.GetString(logging.ContextIDKey)
}
