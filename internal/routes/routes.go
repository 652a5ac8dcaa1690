// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"feedranker/internal/handlers"
	"feedranker/internal/middleware"
)

// APIRouter holds the handlers and middleware SetupRoutes wires together.
type APIRouter struct {
	EngagementHandler *handlers.EngagementHandler
	FeedHandler       *handlers.FeedHandler
	FollowHandler     *handlers.FollowHandler

	AuthMiddleware    *middleware.AuthMiddleware
	SessionMiddleware *middleware.SessionMiddleware
}

func NewAPIRouter(
	engagementHandler *handlers.EngagementHandler,
	feedHandler *handlers.FeedHandler,
	followHandler *handlers.FollowHandler,
	authMiddleware *middleware.AuthMiddleware,
	sessionMiddleware *middleware.SessionMiddleware,
) *APIRouter {
	return &APIRouter{
		EngagementHandler: engagementHandler,
		FeedHandler:       feedHandler,
		FollowHandler:     followHandler,
		AuthMiddleware:    authMiddleware,
		SessionMiddleware: sessionMiddleware,
	}
}

// SetupRoutes wires the §6.1 HTTP surface: engagement, feed, follow.
func SetupRoutes(router *gin.Engine, api *APIRouter, log zerolog.Logger) {
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.GlobalErrorHandler(log))

	router.GET("/health", healthCheck)

	authed := router.Group("/")
	authed.Use(api.AuthMiddleware.RequireAuth())
	authed.Use(api.SessionMiddleware.Attach())
	{
		authed.POST("/engagement/positive", middleware.EngagementRateLimit(), api.EngagementHandler.Positive)
		authed.POST("/engagement/negative", middleware.EngagementRateLimit(), api.EngagementHandler.Negative)
		authed.GET("/feed", api.FeedHandler.GetFeed)
		authed.POST("/user/:id/follow", middleware.FollowRateLimit(), api.FollowHandler.ToggleFollow)
	}

	router.NoRoute(middleware.NotFoundHandler())
	router.NoMethod(middleware.MethodNotAllowedHandler())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "feedranker"})
}
