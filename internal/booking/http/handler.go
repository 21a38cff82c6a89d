package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
)

var (
	errBadQuery = apperror.New(apperror.KindInvalidRequest, "invalid query parameters")
	errNoUser   = apperror.New(apperror.KindUnauthorized, "unauthorized")
	errListFail = apperror.New(apperror.KindInternal, "failed to fetch user bookings")
)

type Handler struct {
	service booking.Service
	log     *zap.Logger
}

func NewHandler(service booking.Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// MyBookings lists the authenticated user's bookings, newest first.
func (h *Handler) MyBookings(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, errBadQuery.WithCause(err))
		return
	}
	req.Normalize()

	userID := auth.GetUserID(c)
	if userID == "" {
		response.Error(c, errNoUser)
		return
	}

	filter := booking.Filter{
		UserID:        userID,
		PaymentStatus: req.PaymentStatus,
		Status:        req.BookingStatus,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}

	bookings, total, err := h.service.ListForUser(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("list user bookings failed", zap.String("user_id", userID), zap.Error(err))
		response.Error(c, errListFail.WithCause(err))
		return
	}

	c.JSON(http.StatusOK, response.NewPage(bookings, NewBookingResponse, req.ListParams, total))
}
