package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tindahan-dev/backend-tindahan/internal/common"
	"github.com/tindahan-dev/backend-tindahan/internal/config"
	"github.com/tindahan-dev/backend-tindahan/internal/notify"
	"github.com/tindahan-dev/backend-tindahan/internal/obs"
	"github.com/tindahan-dev/backend-tindahan/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "tindahan")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	var mailer common.EmailSender = common.NopEmailSender{}

	worker := &notify.EmailWorker{
		Sender:        mailer,
		Tokens:        token.Codec{Secret: cfg.OrderActionSecret},
		PublicBaseURL: cfg.PublicBaseURL,
		From:          cfg.NotifyEmailFrom,
		AdminEmail:    cfg.AdminEmail,
		Logger:        logger,
	}

	srv := asynq.NewServer(connOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
	})

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Run(worker.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
