// middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// getUserID safely extracts user ID from context
func getUserID(c *gin.Context) interface{} {
	if userID, exists := c.Get("user_id"); exists {
		if objID, ok := userID.(primitive.ObjectID); ok {
			return objID.Hex()
		}
		return userID
	}
	return "anonymous"
}

// Logger logs every request through zerolog, same as the rest of the
// service's structured logging.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = primitive.NewObjectID().Hex()
			c.Header("X-Request-ID", requestID)
		}
		c.Set("request_id", requestID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		}

		event := log.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", requestID).
			Interface("user_id", getUserID(c))

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("request")
	})
}
