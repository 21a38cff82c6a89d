package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/booking")

	// === Public Routes ===
	// Authenticated by the Stripe-Signature header, not a bearer token.
	group.POST("/webhook", h.Handle)
}
