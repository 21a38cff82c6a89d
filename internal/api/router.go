package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/service-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/service-booking-backend/internal/checkout"
	checkoutHttp "github.com/nekogravitycat/service-booking-backend/internal/checkout/http"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	webhookHttp "github.com/nekogravitycat/service-booking-backend/internal/webhook/http"
)

// Config holds everything the router needs to mount the API.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// RateLimitPerMin caps checkout requests per caller. Zero disables it.
	RateLimitPerMin int

	BookingService  booking.Service
	CheckoutService checkout.Service
	Verifier        payment.Verifier
	Reconciler      webhookHttp.Reconciler
	TokenVerifier   *auth.Verifier
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (logging, recovery, CORS, metrics) and registers the booking routes.
func NewRouter(cfg Config) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()

	// Global Middleware:
	// - RequestLogger: one structured line per request.
	// - Recovery: Captures panics and returns a 500 error.
	r.Use(RequestLogger(log), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
		"http://localhost:3000", // Frontend dev server
	}
	if cfg.IsProduction {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"}
	if len(config.AllowOrigins) > 0 {
		r.Use(cors.New(config))
	}

	r.Use(cfg.Metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// authMiddleware: Validates the bearer token issued by the identity service.
	authMiddleware := auth.AuthRequired(cfg.TokenVerifier)
	limiter := NewRateLimiter(cfg.RateLimitPerMin, log)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, log)
	checkoutHandler := checkoutHttp.NewHandler(cfg.CheckoutService, log)
	webhookHandler := webhookHttp.NewHandler(cfg.Verifier, cfg.Reconciler, log, cfg.Metrics)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		checkoutHttp.RegisterRoutes(v1, checkoutHandler, authMiddleware, limiter.Middleware())
		webhookHttp.RegisterRoutes(v1, webhookHandler)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
