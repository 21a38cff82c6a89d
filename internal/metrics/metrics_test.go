package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("booking")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `booking_http_requests_total{method="GET",route="/items/:id",status="204"} 1`)
}

func TestDomainCounters(t *testing.T) {
	m := New("booking")

	m.CheckoutResult("created")
	m.CheckoutResult("created")
	m.WebhookOutcome("duplicate")
	m.NotificationResult("smtp", nil)
	m.NotificationResult("smtp", errors.New("dial failed"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("smtp", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("smtp", "error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CheckoutResult("created")
		m.WebhookOutcome("confirmed")
		m.NotificationResult("log", nil)
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
