package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts checkout under /booking. limiter runs after auth.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, limiter gin.HandlerFunc) {
	group := g.Group("/booking")

	// === Authenticated Routes ===
	group.POST("/create-checkout-session", authMiddleware, limiter, h.CreateCheckoutSession)
}
