package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/service-booking-backend/internal/webhook"
)

// Stripe event payloads are well below this.
const maxBodyBytes = 64 << 10

const signatureHeader = "Stripe-Signature"

var outcomeMessages = map[webhook.Outcome]string{
	webhook.OutcomeConfirmed: "Booking confirmed",
	webhook.OutcomeDuplicate: "Booking already exists",
	webhook.OutcomeIgnored:   "Event received but not handled",
	webhook.OutcomeRefunded:  "Conflict detected, refund issued",
}

type Reconciler interface {
	Reconcile(ctx context.Context, ev *payment.Event) (webhook.Outcome, error)
}

type Handler struct {
	verifier   payment.Verifier
	reconciler Reconciler
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewHandler(verifier payment.Verifier, reconciler Reconciler, log *zap.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		verifier:   verifier,
		reconciler: reconciler,
		log:        log,
		metrics:    m,
	}
}

// Handle processes a payment provider webhook. The status code is the only
// signal the provider gets: 2xx acknowledges, 4xx drops, 5xx retries.
func (h *Handler) Handle(c *gin.Context) {
	// The signature covers the exact bytes, so read them before any parsing.
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_body", "Invalid request body", err)
		return
	}
	if len(payload) > maxBodyBytes {
		h.fail(c, http.StatusRequestEntityTooLarge, "invalid_body", "Payload too large", nil)
		return
	}

	ev, err := h.verifier.Verify(payload, c.GetHeader(signatureHeader))
	if err != nil {
		if apperror.KindOf(err) == apperror.KindSignatureInvalid {
			h.fail(c, http.StatusBadRequest, string(apperror.KindSignatureInvalid), "Webhook signature verification failed", err)
			return
		}
		h.fail(c, http.StatusInternalServerError, string(apperror.KindOf(err)), "Internal server error", err)
		return
	}

	outcome, err := h.reconciler.Reconcile(c.Request.Context(), ev)
	if err != nil {
		h.log.Error("error processing webhook",
			zap.String("event_id", ev.ID),
			zap.String("payment_intent_id", ev.PaymentIntentID),
			zap.String("kind", string(apperror.KindOf(err))),
			zap.Error(err),
		)
		h.metrics.WebhookOutcome(string(apperror.KindOf(err)))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	h.metrics.WebhookOutcome(string(outcome))
	c.String(http.StatusOK, outcomeMessages[outcome])
}

func (h *Handler) fail(c *gin.Context, status int, label, msg string, err error) {
	h.log.Warn("webhook rejected", zap.Int("status", status), zap.String("reason", label), zap.Error(err))
	h.metrics.WebhookOutcome(label)
	c.String(status, msg)
}
