// middleware/error_handler.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"feedranker/internal/utils"
)

// errorEnvelope is the central request-path error envelope: {status,
// message, stack?}. Stack is only populated outside release mode.
type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func newErrorEnvelope(c *gin.Context, message string) errorEnvelope {
	env := errorEnvelope{Status: utils.StatusError, Message: message}
	if gin.Mode() != gin.ReleaseMode {
		env.Stack = string(debug.Stack())
	}
	return env
}

// GlobalErrorHandler handles all unhandled errors and panics
func GlobalErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("path", c.Request.URL.Path).
					Str("request_id", getRequestID(c)).
					Msg("panic recovered")

				c.JSON(http.StatusInternalServerError, newErrorEnvelope(c, "Internal server error"))
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			handleGinErrors(c, log)
		}
	})
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.Response{
			Status:  utils.StatusError,
			Message: fmt.Sprintf("the requested endpoint %s %s was not found", c.Request.Method, c.Request.URL.Path),
		})
	})
}

// MethodNotAllowedHandler handles 405 errors
func MethodNotAllowedHandler() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, utils.Response{
			Status:  utils.StatusError,
			Message: fmt.Sprintf("the %s method is not allowed for this endpoint", c.Request.Method),
		})
	})
}

// handleGinErrors processes Gin framework errors
func handleGinErrors(c *gin.Context, log zerolog.Logger) {
	ginError := c.Errors.Last()
	if ginError == nil {
		return
	}

	var statusCode int
	var message string

	switch ginError.Type {
	case gin.ErrorTypeBind:
		statusCode = http.StatusBadRequest
		message = "Invalid request data"
	case gin.ErrorTypePublic:
		statusCode = http.StatusBadRequest
		message = ginError.Error()
	case gin.ErrorTypePrivate:
		statusCode = http.StatusInternalServerError
		message = "Internal server error"
		log.Error().Err(ginError.Err).Str("request_id", getRequestID(c)).Msg("private gin error")
	default:
		if mongoErr := classifyMongoError(ginError.Err); mongoErr != "" {
			statusCode, message = mongoStatus(ginError.Err), mongoErr
		} else {
			statusCode = http.StatusInternalServerError
			message = "Internal server error"
		}
	}

	c.JSON(statusCode, utils.Response{
		Status:  utils.StatusError,
		Message: message,
		Error:   ginError.Error(),
	})
}

// classifyMongoError maps MongoDB driver errors to a user-facing message,
// empty if err isn't one the driver recognizes.
func classifyMongoError(err error) string {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return "Resource already exists"
	case err == mongo.ErrNoDocuments:
		return "Resource not found"
	case mongo.IsTimeout(err):
		return "Database operation timed out"
	case mongo.IsNetworkError(err):
		return "Database connection error"
	default:
		return ""
	}
}

func mongoStatus(err error) int {
	switch {
	case mongo.IsDuplicateKeyError(err):
		return http.StatusConflict
	case err == mongo.ErrNoDocuments:
		return http.StatusNotFound
	case mongo.IsTimeout(err):
		return http.StatusRequestTimeout
	case mongo.IsNetworkError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getRequestID extracts or generates a request ID
func getRequestID(c *gin.Context) string {
	if requestID := c.GetHeader("X-Request-ID"); requestID != "" {
		return requestID
	}
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}
