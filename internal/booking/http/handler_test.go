package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/auth/authtest"
	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/response"
)

type stubService struct {
	filter booking.Filter
	items  []*booking.Booking
	err    error
}

func (s *stubService) ListForUser(_ context.Context, f booking.Filter) ([]*booking.Booking, int, error) {
	s.filter = f
	return s.items, len(s.items), s.err
}

func setup(t *testing.T, svc booking.Service) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, zap.NewNop()), auth.AuthRequired(auth.NewVerifier(authtest.Secret)))
	return r, authtest.Token(t, "user-1", "alice@example.com")
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMyBookings(t *testing.T) {
	pi := "pi_1"
	svc := &stubService{items: []*booking.Booking{{
		ID:              "b-1",
		ServiceID:       "svc-1",
		ServiceTitle:    "Court A",
		Slots:           []booking.Slot{{Date: "2025-07-01", StartTime: "10:00", EndTime: "11:00"}},
		TotalAmount:     decimal.RequireFromString("50"),
		PaymentStatus:   booking.PaymentPaid,
		Status:          booking.StatusConfirmed,
		PaymentIntentID: &pi,
	}}}
	r, token := setup(t, svc)

	t.Run("Lists with filters", func(t *testing.T) {
		w := get(r, "/v1/booking/my-bookings?page=2&page_size=5&payment_status=paid", token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp response.PageResponse[BookingResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Page)
		assert.Equal(t, 5, resp.PageSize)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "50.00", resp.Items[0].TotalAmount)
		assert.Equal(t, "Court A", resp.Items[0].Service.Title)
		assert.Equal(t, "10:00", resp.Items[0].Slots[0].StartTime)

		assert.Equal(t, "user-1", svc.filter.UserID)
		assert.Equal(t, "paid", svc.filter.PaymentStatus)
	})

	t.Run("Defaults pagination", func(t *testing.T) {
		w := get(r, "/v1/booking/my-bookings", token)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, svc.filter.Page)
		assert.Equal(t, 10, svc.filter.PageSize)
	})

	t.Run("Rejects unknown status", func(t *testing.T) {
		w := get(r, "/v1/booking/my-bookings?booking_status=lost", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"kind":"invalid_request"`)
	})

	t.Run("Requires token", func(t *testing.T) {
		w := get(r, "/v1/booking/my-bookings", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMyBookings_StoreError(t *testing.T) {
	r, token := setup(t, &stubService{err: errors.New("db down")})
	w := get(r, "/v1/booking/my-bookings", token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to fetch user bookings","kind":"internal"}`, w.Body.String())
}

func TestMyBookings_EmptyPage(t *testing.T) {
	r, token := setup(t, &stubService{})
	w := get(r, "/v1/booking/my-bookings", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"page":1,"page_size":10,"total":0}`, w.Body.String())
}
