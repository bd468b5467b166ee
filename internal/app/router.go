// internal/app/router.go
package app

import (
	authHandler "neusentra-service/internal/handlers/auth"
	eventsHandler "neusentra-service/internal/handlers/events"
	"neusentra-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	EventsHandler  *eventsHandler.EventsHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.GET("/initialization-status", h.AuthHandler.InitializationStatus)
		authPublic.POST("/initialize", h.AuthHandler.Initialize)
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/refresh-token", h.AuthHandler.Refresh)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
	}

	// ==================== Event Streams ====================
	events := api.Group("/events")
	{
		events.GET("/server", h.EventsHandler.ServerEvents)
		events.GET("/user/:userId", h.EventsHandler.UserEvents)
		events.GET("/ws/:userId", h.EventsHandler.WebSocket)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
