package main

import (
	"log"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/nekogravitycat/service-booking-backend/internal/config"
	"github.com/nekogravitycat/service-booking-backend/internal/logger"
	"github.com/nekogravitycat/service-booking-backend/internal/notification"
)

// The worker drains the email queue filled by the server when
// NOTIFY_TRANSPORT=asynq and delivers each message over SMTP.
func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
			DB:       cfg.Notify.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: zl.Named("asynq").Sugar(),
		},
	)

	mailer := notification.NewMailer(notification.SMTPConfig{
		Host:     cfg.Notify.SMTPHost,
		Port:     cfg.Notify.SMTPPort,
		Username: cfg.Notify.SMTPUsername,
		Password: cfg.Notify.SMTPPassword,
		From:     cfg.Notify.SMTPFrom,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeEmailSend, notification.HandleEmailTask(mailer, zl.Named("email")))

	zl.Info("email worker starting", zap.Int("concurrency", cfg.Concurrency))
	// Run blocks until SIGTERM or SIGINT and then drains in-flight tasks.
	if err := srv.Run(mux); err != nil {
		zl.Fatal("email worker stopped", zap.Error(err))
	}
}
