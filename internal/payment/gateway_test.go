package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// newTestGateway points a Stripe client at a local server.
func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	sc := client.New("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return NewStripeGateway(sc)
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	var form map[string]string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	})

	s, err := gw.CreateCheckoutSession(context.Background(), SessionRequest{
		ProductName:   "Booking for Court A",
		Currency:      "usd",
		UnitAmount:    5000,
		Quantity:      3,
		SuccessURL:    "http://localhost:3000/success",
		CancelURL:     "http://localhost:3000/cancel",
		CustomerEmail: "buyer@example.com",
		Metadata:      map[string]string{"serviceId": "svc-1", "totalAmount": "150.00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)

	assert.Equal(t, "payment", form["mode"])
	assert.Equal(t, "card", form["payment_method_types[0]"])
	assert.Equal(t, "usd", form["line_items[0][price_data][currency]"])
	assert.Equal(t, "Booking for Court A", form["line_items[0][price_data][product_data][name]"])
	assert.Equal(t, "5000", form["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "3", form["line_items[0][quantity]"])
	assert.Equal(t, "http://localhost:3000/success", form["success_url"])
	assert.Equal(t, "buyer@example.com", form["customer_email"])
	assert.Equal(t, "150.00", form["metadata[totalAmount]"])
}

func TestStripeGateway_Refund(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/refunds", r.URL.Path)
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "pi_123", r.PostForm.Get("payment_intent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","amount":15000}`))
		})

		r, err := gw.Refund(context.Background(), "pi_123")
		require.NoError(t, err)
		assert.Equal(t, "re_1", r.ID)
		assert.Equal(t, int64(15000), r.Amount)
	})

	t.Run("Provider error", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`))
		})

		_, err := gw.Refund(context.Background(), "pi_missing")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrAlreadyRefunded)
	})

	t.Run("Retries reuse the idempotency key", func(t *testing.T) {
		var keys []string
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			keys = append(keys, r.Header.Get("Idempotency-Key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","amount":15000}`))
		})

		for range 2 {
			_, err := gw.Refund(context.Background(), "pi_123")
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"refund:pi_123", "refund:pi_123"}, keys)
	})

	t.Run("Already refunded", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"charge_already_refunded","message":"Charge ch_1 has already been refunded."}}`))
		})

		_, err := gw.Refund(context.Background(), "pi_123")
		assert.ErrorIs(t, err, ErrAlreadyRefunded)
	})
}
