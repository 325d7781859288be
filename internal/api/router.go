// Package api exposes the engine over HTTP and streams its events over websockets.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(logger *slog.Logger, h *Handler, hub *Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/healthz", h.Health)
	r.GET("/ws", hub.ServeWS)

	api := r.Group("/api")
	{
		api.GET("/markets", h.GetMarkets)
		api.GET("/opportunities", h.GetOpportunities)
		api.GET("/trades", h.GetTrades)
		api.GET("/account", h.GetAccount)
		api.GET("/pnl", h.GetPnL)
		api.GET("/status", h.GetStatus)
		api.GET("/advisory", h.GetAdvisory)
		api.POST("/advisory/refresh", h.RefreshAdvisory)
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)
		api.POST("/execute", h.Execute)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
