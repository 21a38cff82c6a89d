package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/checkout"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
)

type Handler struct {
	service checkout.Service
	log     *zap.Logger
}

func NewHandler(service checkout.Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// CreateCheckoutSession issues a hosted payment page for the selected slots.
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var body CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.Wrap(err, apperror.KindInvalidRequest, "invalid request body"))
		return
	}

	userID := auth.GetUserID(c)
	if userID == "" {
		response.Error(c, apperror.New(apperror.KindUnauthorized, "unauthorized"))
		return
	}

	email := body.Email
	if email == "" {
		email = auth.GetUserEmail(c)
	}

	slots := make([]booking.Slot, len(body.SelectedSlots))
	for i, s := range body.SelectedSlots {
		slots[i] = booking.Slot{Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime}
	}

	url, err := h.service.IssueCheckout(c.Request.Context(), checkout.Request{
		UserID:    userID,
		ServiceID: body.ServiceID,
		Slots:     slots,
		Name:      body.Name,
		Phone:     body.Phone,
		Email:     email,
	})
	if err != nil {
		if apperror.KindOf(err).Status() >= http.StatusInternalServerError {
			h.log.Error("create checkout session failed", zap.String("user_id", userID), zap.Error(err))
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateCheckoutSessionResponse{SessionURL: url})
}
