package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/api"
	"github.com/nekogravitycat/service-booking-backend/internal/auth"
	"github.com/nekogravitycat/service-booking-backend/internal/booking"
	"github.com/nekogravitycat/service-booking-backend/internal/catalog"
	"github.com/nekogravitycat/service-booking-backend/internal/checkout"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
	"github.com/nekogravitycat/service-booking-backend/internal/webhook"
)

// PaymentProvider creates hosted checkouts and refunds them.
type PaymentProvider interface {
	checkout.Gateway
	webhook.Refunder
}

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string

	Logger          *zap.Logger
	Metrics         *metrics.Metrics
	RateLimitPerMin int

	Payments            PaymentProvider
	Verifier            payment.Verifier
	Notifier            webhook.Dispatcher
	Currency            string
	FrontendURL         string
	RevalidateOnConfirm bool
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	// Init Components
	tokenVerifier := auth.NewVerifier(cfg.JWTSecret)

	// Catalog Module
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo)

	// Checkout Module
	checkoutService := checkout.NewService(
		catalogRepo,
		booking.NewConflictChecker(bookingRepo),
		cfg.Payments,
		checkout.Options{Currency: cfg.Currency, FrontendURL: cfg.FrontendURL},
		log.Named("checkout"),
		cfg.Metrics,
	)

	// Webhook Module
	reconciler := webhook.NewReconciler(
		bookingRepo,
		catalogRepo,
		cfg.Payments,
		cfg.Notifier,
		webhook.Options{RevalidateOnConfirm: cfg.RevalidateOnConfirm},
		log.Named("webhook"),
	)

	// API Router Config
	routerParams := api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          log,
		Metrics:         cfg.Metrics,
		RateLimitPerMin: cfg.RateLimitPerMin,
		BookingService:  bookingService,
		CheckoutService: checkoutService,
		Verifier:        cfg.Verifier,
		Reconciler:      reconciler,
		TokenVerifier:   tokenVerifier,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router: router,
	}
}
