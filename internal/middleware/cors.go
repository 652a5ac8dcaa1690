// middleware/cors.go
package middleware

import "github.com/gin-gonic/gin"

// CORS allows cross-origin requests from any origin; the feed API has no
// cookie-based browser session beyond the sid cookie, which SameSite=Lax
// already protects.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
