package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/booking")

	// === Authenticated Routes ===
	group.GET("/my-bookings", authMiddleware, h.MyBookings)
}
