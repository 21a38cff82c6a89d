package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/app"
	"github.com/nekogravitycat/service-booking-backend/internal/config"
	"github.com/nekogravitycat/service-booking-backend/internal/db"
	"github.com/nekogravitycat/service-booking-backend/internal/logger"
	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/notification"
	"github.com/nekogravitycat/service-booking-backend/internal/payment"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		zl.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		zl.Fatal("failed to apply schema", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New("booking")
	}

	// Notifications run in the background and never fail a webhook.
	notifier, closeNotifier, err := newNotifier(cfg, zl)
	if err != nil {
		zl.Fatal("failed to set up notifications", zap.Error(err))
	}
	defer closeNotifier()
	dispatcher := notification.NewAsync(notifier, cfg.Notify.Transport, cfg.Notify.Timeout, zl.Named("notify"), m)

	// Init components
	stripeClient := client.New(cfg.StripeSecretKey, nil)

	container := app.NewContainer(app.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		DBPool:              pool,
		JWTSecret:           cfg.JWTSecret,
		Logger:              zl,
		Metrics:             m,
		RateLimitPerMin:     cfg.RateLimitPerMin,
		Payments:            payment.NewStripeGateway(stripeClient),
		Verifier:            payment.NewStripeVerifier(cfg.StripeWebhookSecret),
		Notifier:            dispatcher,
		Currency:            cfg.StripeCurrency,
		FrontendURL:         cfg.FrontendURL,
		RevalidateOnConfirm: cfg.RevalidateOnConfirm,
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("notify_transport", cfg.Notify.Transport))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zl.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notifications finish before their transport closes.
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		zl.Warn("abandoning in-flight notifications", zap.Error(err))
	}

	zl.Info("server exited gracefully")
}

// newNotifier builds the notifier for the configured transport and a func
// that releases its connections.
func newNotifier(cfg *config.Config, zl *zap.Logger) (notification.Notifier, func(), error) {
	n := cfg.Notify
	switch n.Transport {
	case config.NotifyAsynq:
		qc := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     n.RedisAddr,
			Password: n.RedisPassword,
			DB:       n.RedisDB,
		})
		closeFn := func() {
			if err := qc.Close(); err != nil {
				zl.Warn("failed to close task queue client", zap.Error(err))
			}
		}
		return notification.NewEmailNotifier(notification.NewTaskQueue(qc), cfg.AdminEmail), closeFn, nil

	case config.NotifyAMQP:
		p, err := notification.NewPublisher(n.AMQPURL, n.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connect amqp: %w", err)
		}
		closeFn := func() {
			if err := p.Close(); err != nil {
				zl.Warn("failed to close amqp publisher", zap.Error(err))
			}
		}
		return p, closeFn, nil

	case config.NotifySMTP:
		mailer := notification.NewMailer(notification.SMTPConfig{
			Host:     n.SMTPHost,
			Port:     n.SMTPPort,
			Username: n.SMTPUsername,
			Password: n.SMTPPassword,
			From:     n.SMTPFrom,
		})
		return notification.NewEmailNotifier(mailer, cfg.AdminEmail), func() {}, nil

	default:
		return notification.NewLogNotifier(zl.Named("notify")), func() {}, nil
	}
}
